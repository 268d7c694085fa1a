package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/koopkredit/lending-service/internal/models"
)

// CreatePayment stores a member-submitted payment as pending
func (r *Repository) CreatePayment(ctx context.Context, payment *models.LoanPayment) error {
	query := `
		INSERT INTO lending.loan_payments (loan_id, amount, payment_date, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		payment.LoanID, payment.Amount, payment.PaymentDate, payment.Method, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FindPaymentByID retrieves a payment by id
func (r *Repository) FindPaymentByID(ctx context.Context, id int64) (*models.LoanPayment, error) {
	payment := &models.LoanPayment{}
	query := `
		SELECT id, loan_id, amount, payment_date, method, status, verified_by, created_at
		FROM lending.loan_payments
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&payment.ID, &payment.LoanID, &payment.Amount, &payment.PaymentDate,
			&payment.Method, &payment.Status, &payment.VerifiedBy, &payment.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return payment, nil
}

// SetPaymentStatus transitions a pending payment to verified or rejected.
// The WHERE clause keeps the transition one-way: an already decided payment
// is not updated again.
func (r *Repository) SetPaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, verifiedBy int64) error {
	query := `
		UPDATE lending.loan_payments
		SET status = $2, verified_by = $3
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, verifiedBy)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM lending.loan_payments WHERE id = $1)`, id).
			Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check payment existence: %w", err)
		}
		if exists {
			return ErrPaymentDecided
		}
		return ErrNotFound
	}
	return nil
}

// CountVerifiedPayments counts verified payments for a loan
func (r *Repository) CountVerifiedPayments(ctx context.Context, loanID int64) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM lending.loan_payments
		WHERE loan_id = $1 AND status = 'verified'`
	if err := r.db.QueryRowContext(ctx, query, loanID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count verified payments: %w", err)
	}
	return count, nil
}
