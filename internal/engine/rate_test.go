package engine

import (
	"testing"
	"time"

	"github.com/koopkredit/lending-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveRateNoChanges(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 2.0, ResolveRate(2.0, nil, now))
}

func TestResolveRateFutureChangeWins(t *testing.T) {
	now := time.Now()
	changes := []models.RateChange{
		{NewRate: 3.0, EffectiveDate: now.AddDate(0, 0, 10)},
	}
	assert.Equal(t, 3.0, ResolveRate(2.0, changes, now))
}

func TestResolveRateEarliestFutureChangeWins(t *testing.T) {
	now := time.Now()
	changes := []models.RateChange{
		{NewRate: 4.0, EffectiveDate: now.AddDate(0, 0, 30)},
		{NewRate: 3.0, EffectiveDate: now.AddDate(0, 0, 10)},
		{NewRate: 5.0, EffectiveDate: now.AddDate(0, 0, 20)},
	}
	assert.Equal(t, 3.0, ResolveRate(2.0, changes, now))
}

func TestResolveRatePastChangesIgnored(t *testing.T) {
	now := time.Now()
	changes := []models.RateChange{
		{NewRate: 3.0, EffectiveDate: now.AddDate(0, 0, -10)},
		{NewRate: 3.5, EffectiveDate: now},
	}
	// A change effective exactly at asOf is not "strictly in the future".
	assert.Equal(t, 2.0, ResolveRate(2.0, changes, now))
}

func TestResolveRateAsOfBeforeSchedule(t *testing.T) {
	now := time.Now()
	// Resolving as of a date before any change existed: no future change
	// relative to that reference, so the base rate applies.
	assert.Equal(t, 2.0, ResolveRate(2.0, nil, now.AddDate(0, 0, -20)))
}
