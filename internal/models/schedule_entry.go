package models

import "time"

// ScheduleEntry represents one row of a loan amortization table. Entries are
// written once when the loan is activated; only the paid fields and the late
// fee change afterwards.
type ScheduleEntry struct {
	ID               int64      `json:"id"`
	LoanID           int64      `json:"loan_id"`
	Period           int        `json:"period"`
	DueDate          time.Time  `json:"due_date"`
	Amount           float64    `json:"amount"`
	PrincipalPortion float64    `json:"principal_portion"`
	InterestPortion  float64    `json:"interest_portion"`
	RemainingBalance float64    `json:"remaining_balance"`
	Paid             bool       `json:"paid"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	LateFee          float64    `json:"late_fee"`
}
