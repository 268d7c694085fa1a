package engine

import (
	"time"

	"github.com/koopkredit/lending-service/internal/models"
)

// DefaultRate is the percent-per-period rate used when the rate setting
// cannot be read. Read-path only; writes never fall back.
const DefaultRate = 2.0

// ResolveRate returns the interest rate effective at asOf. The earliest
// scheduled change whose effective date is strictly after asOf wins;
// otherwise the current base rate applies.
func ResolveRate(currentRate float64, changes []models.RateChange, asOf time.Time) float64 {
	var next *models.RateChange
	for i := range changes {
		c := &changes[i]
		if !c.EffectiveDate.After(asOf) {
			continue
		}
		if next == nil || c.EffectiveDate.Before(next.EffectiveDate) {
			next = c
		}
	}
	if next != nil {
		return next.NewRate
	}
	return currentRate
}
