package service

import (
	"context"
	"fmt"
	"time"

	"github.com/koopkredit/lending-service/internal/engine"
	"github.com/koopkredit/lending-service/internal/models"
)

// EffectiveRate resolves the rate effective at asOf. On a lookup failure the
// hard-coded default rate is returned instead of an error; quoting a loan is
// preferred over refusing one. Writes never get this treatment.
func (s *Service) EffectiveRate(ctx context.Context, asOf time.Time) float64 {
	setting, err := s.store.FindRateSetting(ctx)
	if err != nil {
		s.log.Warnf("Rate setting lookup failed, using default %.2f%%: %v", engine.DefaultRate, err)
		return engine.DefaultRate
	}
	changes, err := s.store.FindRateChangesAfter(ctx, asOf)
	if err != nil {
		s.log.Warnf("Rate change lookup failed, using default %.2f%%: %v", engine.DefaultRate, err)
		return engine.DefaultRate
	}
	return engine.ResolveRate(setting.CurrentRate, changes, asOf)
}

// UpdateRate applies an administrator rate change. A future effective date
// queues a scheduled change; an immediate or past date overwrites the base
// rate directly. Storage errors surface to the caller.
func (s *Service) UpdateRate(ctx context.Context, newRate float64, effectiveAt time.Time) (*models.RateChange, error) {
	adminID, err := memberIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if newRate < 0 {
		return nil, &engine.ValidationError{Field: "rate", Reason: "must not be negative"}
	}

	setting, err := s.store.FindRateSetting(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current rate: %w", err)
	}

	if effectiveAt.After(s.now()) {
		change := &models.RateChange{
			OldRate:       setting.CurrentRate,
			NewRate:       newRate,
			EffectiveDate: effectiveAt,
			CreatedBy:     adminID,
		}
		if err := s.store.CreateRateChange(ctx, change); err != nil {
			return nil, err
		}
		s.log.Infof("Rate change scheduled by admin %d: %.2f%% -> %.2f%% effective %s",
			adminID, setting.CurrentRate, newRate, effectiveAt.Format("2006-01-02"))
		return change, nil
	}

	if err := s.store.UpdateRateSetting(ctx, newRate, adminID); err != nil {
		return nil, err
	}
	s.log.Infof("Rate updated by admin %d: %.2f%% -> %.2f%%", adminID, setting.CurrentRate, newRate)
	return &models.RateChange{
		OldRate:       setting.CurrentRate,
		NewRate:       newRate,
		EffectiveDate: s.now(),
		CreatedBy:     adminID,
	}, nil
}

// SuggestedRate fetches a starting point for the admin rate screen from the
// reference rate feed. The feed client already folds the cooperative's margin
// into the rate it reports.
func (s *Service) SuggestedRate(ctx context.Context) (float64, error) {
	if s.rateFeed == nil {
		return 0, fmt.Errorf("no rate feed configured")
	}
	rate, err := s.rateFeed.GetKeyRate()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch reference rate: %w", err)
	}
	return engine.Round2(rate), nil
}
