package service

import (
	"context"
	"errors"

	"github.com/koopkredit/lending-service/internal/engine"
	"github.com/koopkredit/lending-service/internal/models"
	"github.com/koopkredit/lending-service/internal/repository"
)

// SubmitPayment records a member payment as pending verification
func (s *Service) SubmitPayment(ctx context.Context, loanID int64, amount float64, method string) (*models.LoanPayment, error) {
	memberID, err := memberIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	loan, err := s.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.MemberID != memberID {
		return nil, errors.New("loan does not belong to member")
	}
	if loan.Status != models.LoanStatusActive {
		return nil, ErrNotActive
	}
	if amount <= 0 {
		return nil, &engine.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	payment := &models.LoanPayment{
		LoanID:      loanID,
		Amount:      engine.Round2(amount),
		PaymentDate: s.now(),
		Method:      method,
		Status:      models.PaymentStatusPending,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.log.Infof("Payment of %.2f submitted for loan %d", payment.Amount, loanID)
	return payment, nil
}

// VerifyPayment transitions a pending payment to verified or rejected. On
// verification the earliest unpaid schedule entry is marked paid and the loan
// is completed once the verified count reaches the semi-monthly total.
func (s *Service) VerifyPayment(ctx context.Context, paymentID int64, approve bool) (*models.LoanPayment, error) {
	adminID, err := memberIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	payment, err := s.store.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	status := models.PaymentStatusRejected
	if approve {
		status = models.PaymentStatusVerified
	}
	if err := s.store.SetPaymentStatus(ctx, paymentID, status, adminID); err != nil {
		return nil, err
	}
	payment.Status = status
	payment.VerifiedBy = &adminID

	if !approve {
		s.log.Infof("Payment %d rejected by admin %d", paymentID, adminID)
		return payment, nil
	}

	// A verified payment settles the oldest open schedule entry. Verified
	// payments can outnumber schedule rows (semi-monthly counting), so a
	// fully-paid schedule is not an error here.
	if err := s.store.MarkEarliestUnpaid(ctx, payment.LoanID); err != nil &&
		!errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	loan, err := s.store.FindLoanByID(ctx, payment.LoanID)
	if err != nil {
		return nil, err
	}
	verified, err := s.store.CountVerifiedPayments(ctx, payment.LoanID)
	if err != nil {
		return nil, err
	}
	progress := engine.Progress(loan.TermMonths, verified)
	if progress.Remaining == 0 && loan.Status == models.LoanStatusActive {
		if err := s.store.UpdateLoanStatus(ctx, loan.ID, models.LoanStatusCompleted); err != nil {
			return nil, err
		}
		s.log.Infof("Loan %d completed", loan.ID)
	}

	s.log.Infof("Payment %d verified by admin %d", paymentID, adminID)
	return payment, nil
}

// LoanProgress returns the semi-monthly progress counters for a loan
func (s *Service) LoanProgress(ctx context.Context, loanID int64) (models.LoanProgress, error) {
	loan, err := s.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return models.LoanProgress{}, err
	}
	verified, err := s.store.CountVerifiedPayments(ctx, loanID)
	if err != nil {
		return models.LoanProgress{}, err
	}
	return engine.Progress(loan.TermMonths, verified), nil
}
