package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/koopkredit/lending-service/internal/models"
)

// FindRateSetting reads the single-row institution-wide base rate
func (r *Repository) FindRateSetting(ctx context.Context) (*models.RateSetting, error) {
	setting := &models.RateSetting{}
	query := `
		SELECT current_rate, updated_by, updated_at
		FROM lending.rate_setting
		WHERE id = 1`
	err := r.db.QueryRowContext(ctx, query).
		Scan(&setting.CurrentRate, &setting.UpdatedBy, &setting.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate setting: %w", err)
	}
	return setting, nil
}

// UpdateRateSetting overwrites the base rate. Last write wins.
func (r *Repository) UpdateRateSetting(ctx context.Context, rate float64, updatedBy int64) error {
	query := `
		UPDATE lending.rate_setting
		SET current_rate = $1, updated_by = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1`
	if _, err := r.db.ExecContext(ctx, query, rate, updatedBy); err != nil {
		return fmt.Errorf("failed to update rate setting: %w", err)
	}
	return nil
}

// CreateRateChange appends a scheduled rate change to the log
func (r *Repository) CreateRateChange(ctx context.Context, change *models.RateChange) error {
	query := `
		INSERT INTO lending.rate_changes (old_rate, new_rate, effective_date, created_by, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		change.OldRate, change.NewRate, change.EffectiveDate, change.CreatedBy).
		Scan(&change.ID, &change.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create rate change: %w", err)
	}
	return nil
}

// FindRateChangesAfter returns scheduled changes effective strictly after asOf
func (r *Repository) FindRateChangesAfter(ctx context.Context, asOf time.Time) ([]models.RateChange, error) {
	query := `
		SELECT id, old_rate, new_rate, effective_date, created_by, created_at
		FROM lending.rate_changes
		WHERE effective_date > $1
		ORDER BY effective_date`
	rows, err := r.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate changes: %w", err)
	}
	defer rows.Close()

	var changes []models.RateChange
	for rows.Next() {
		var c models.RateChange
		if err := rows.Scan(&c.ID, &c.OldRate, &c.NewRate, &c.EffectiveDate,
			&c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rate change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rate changes: %w", err)
	}
	return changes, nil
}
