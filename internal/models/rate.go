package models

import "time"

// RateSetting is the single-row institution-wide base rate, percent per period.
type RateSetting struct {
	CurrentRate float64   `json:"current_rate"`
	UpdatedBy   int64     `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RateChange is one scheduled future change to the base rate. The log is
// append-only; conflicting queued changes are resolved at read time by the
// earliest-future-change rule.
type RateChange struct {
	ID            int64     `json:"id"`
	OldRate       float64   `json:"old_rate"`
	NewRate       float64   `json:"new_rate"`
	EffectiveDate time.Time `json:"effective_date"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// LoanProgress pairs the semi-monthly payment count against the monthly
// schedule for one loan. Total counts two payments per month of term, which
// intentionally differs from the number of schedule rows.
type LoanProgress struct {
	Total     int     `json:"total"`
	Paid      int     `json:"paid"`
	Remaining int     `json:"remaining"`
	Percent   float64 `json:"percent"`
}
