package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/koopkredit/lending-service/internal/models"
)

// DueEntry is an unpaid schedule entry joined with its member, used by the
// reminder job.
type DueEntry struct {
	EntryID  int64
	LoanID   int64
	DueDate  time.Time
	Amount   float64
	LateFee  float64
	Username string
	Email    string
}

// CreateLoan stores a new loan application
func (r *Repository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO lending.loans (member_id, principal, term_months, interest_rate,
			monthly_payment, total_amount, purpose, payment_method, status, hmac,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		loan.MemberID, loan.Principal, loan.TermMonths, loan.InterestRate,
		loan.MonthlyPayment, loan.TotalAmount, loan.Purpose, loan.PaymentMethod,
		loan.Status, loan.HMAC).
		Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByID retrieves a loan by id
func (r *Repository) FindLoanByID(ctx context.Context, id int64) (*models.Loan, error) {
	loan := &models.Loan{}
	query := `
		SELECT id, member_id, principal, term_months, interest_rate, monthly_payment,
			total_amount, purpose, payment_method, status, hmac, created_at, updated_at
		FROM lending.loans
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&loan.ID, &loan.MemberID, &loan.Principal, &loan.TermMonths,
			&loan.InterestRate, &loan.MonthlyPayment, &loan.TotalAmount,
			&loan.Purpose, &loan.PaymentMethod, &loan.Status, &loan.HMAC,
			&loan.CreatedAt, &loan.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// UpdateLoanStatus moves a loan to a new status
func (r *Repository) UpdateLoanStatus(ctx context.Context, id int64, status models.LoanStatus) error {
	query := `
		UPDATE lending.loans
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSchedule persists a full amortization schedule in one transaction.
// If any entry already exists for the loan the whole write is rolled back and
// ErrScheduleExists is returned, so a schedule can never be written twice or
// left half-written. The (loan_id, period) unique index backs the in-tx
// existence check against concurrent approvals.
func (r *Repository) SaveSchedule(ctx context.Context, loanID int64, entries []models.ScheduleEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM lending.schedule_entries WHERE loan_id = $1)`, loanID).
		Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check schedule existence: %w", err)
	}
	if exists {
		return ErrScheduleExists
	}

	query := `
		INSERT INTO lending.schedule_entries (loan_id, period, due_date, amount,
			principal_portion, interest_portion, remaining_balance, paid, late_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, 0)`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query,
			e.LoanID, e.Period, e.DueDate, e.Amount,
			e.PrincipalPortion, e.InterestPortion, e.RemainingBalance); err != nil {
			return fmt.Errorf("failed to insert schedule entry %d: %w", e.Period, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}
	return nil
}

// FindSchedule returns a loan's schedule ordered by period
func (r *Repository) FindSchedule(ctx context.Context, loanID int64) ([]models.ScheduleEntry, error) {
	query := `
		SELECT id, loan_id, period, due_date, amount, principal_portion,
			interest_portion, remaining_balance, paid, paid_at, late_fee
		FROM lending.schedule_entries
		WHERE loan_id = $1
		ORDER BY period`
	rows, err := r.db.QueryContext(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.LoanID, &e.Period, &e.DueDate, &e.Amount,
			&e.PrincipalPortion, &e.InterestPortion, &e.RemainingBalance,
			&e.Paid, &e.PaidAt, &e.LateFee); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	return entries, nil
}

// MarkEarliestUnpaid marks the earliest unpaid schedule entry of a loan as
// paid. Returns ErrNotFound when every entry is already paid.
func (r *Repository) MarkEarliestUnpaid(ctx context.Context, loanID int64) error {
	query := `
		UPDATE lending.schedule_entries
		SET paid = TRUE, paid_at = CURRENT_TIMESTAMP
		WHERE id = (
			SELECT id FROM lending.schedule_entries
			WHERE loan_id = $1 AND paid = FALSE
			ORDER BY period
			LIMIT 1
		)`
	res, err := r.db.ExecContext(ctx, query, loanID)
	if err != nil {
		return fmt.Errorf("failed to mark schedule entry paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindDueUnpaid returns unpaid entries due on or before the given date,
// joined with the borrowing member for notification.
func (r *Repository) FindDueUnpaid(ctx context.Context, before time.Time) ([]DueEntry, error) {
	query := `
		SELECT se.id, se.loan_id, se.due_date, se.amount, se.late_fee,
			m.username, m.email
		FROM lending.schedule_entries se
		JOIN lending.loans l ON l.id = se.loan_id
		JOIN lending.members m ON m.id = l.member_id
		WHERE se.paid = FALSE AND se.due_date <= $1 AND l.status = 'active'
		ORDER BY se.due_date`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query due entries: %w", err)
	}
	defer rows.Close()

	var due []DueEntry
	for rows.Next() {
		var d DueEntry
		if err := rows.Scan(&d.EntryID, &d.LoanID, &d.DueDate, &d.Amount,
			&d.LateFee, &d.Username, &d.Email); err != nil {
			return nil, fmt.Errorf("failed to scan due entry: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read due entries: %w", err)
	}
	return due, nil
}

// ApplyLateFee sets the late fee on an entry if none has been applied yet.
// Returns false when the fee was already present.
func (r *Repository) ApplyLateFee(ctx context.Context, entryID int64, fee float64) (bool, error) {
	query := `
		UPDATE lending.schedule_entries
		SET late_fee = $2
		WHERE id = $1 AND late_fee = 0`
	res, err := r.db.ExecContext(ctx, query, entryID, fee)
	if err != nil {
		return false, fmt.Errorf("failed to apply late fee: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
