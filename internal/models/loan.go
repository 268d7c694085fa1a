package models

import "time"

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
)

// Loan represents a member loan. The interest rate and the derived
// monthly_payment/total_amount are fixed when the application is stored and
// are never recomputed from later rate updates.
type Loan struct {
	ID             int64      `json:"id"`
	MemberID       int64      `json:"member_id"`
	Principal      float64    `json:"principal"`
	TermMonths     int        `json:"term_months"`
	InterestRate   float64    `json:"interest_rate"`
	MonthlyPayment float64    `json:"monthly_payment"`
	TotalAmount    float64    `json:"total_amount"`
	Purpose        string     `json:"purpose"`
	PaymentMethod  string     `json:"payment_method"`
	Status         LoanStatus `json:"status"`
	HMAC           string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
