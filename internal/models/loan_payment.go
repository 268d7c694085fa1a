package models

import "time"

// PaymentStatus represents the verification state of a submitted payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// LoanPayment represents a payment submitted by a member. It stays pending
// until an administrator verifies or rejects it; only verified payments count
// towards loan progress.
type LoanPayment struct {
	ID          int64         `json:"id"`
	LoanID      int64         `json:"loan_id"`
	Amount      float64       `json:"amount"`
	PaymentDate time.Time     `json:"payment_date"`
	Method      string        `json:"method"`
	Status      PaymentStatus `json:"status"`
	VerifiedBy  *int64        `json:"verified_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
