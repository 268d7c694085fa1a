package service

import (
	"context"
	"fmt"

	"github.com/koopkredit/lending-service/internal/engine"
	"github.com/koopkredit/lending-service/internal/models"
	"github.com/koopkredit/lending-service/internal/utils"
)

// allowedTerms are the loan durations the cooperative offers, in months.
var allowedTerms = map[int]bool{3: true, 6: true, 9: true, 12: true}

// ApplyForLoan validates the application, quotes it with the flat-rate model
// at the rate effective right now, and stores a pending loan. The quoted rate
// and derived amounts are frozen on the row; later rate changes never touch
// existing loans.
func (s *Service) ApplyForLoan(ctx context.Context, principal float64, termMonths int, purpose, paymentMethod string) (*models.Loan, error) {
	memberID, err := memberIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	member, err := s.store.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !member.Approved {
		return nil, &engine.ValidationError{Field: "member", Reason: "membership not yet approved"}
	}

	if !allowedTerms[termMonths] {
		return nil, &engine.ValidationError{Field: "term", Reason: "must be 3, 6, 9 or 12 months"}
	}

	rate := s.EffectiveRate(ctx, s.now())
	quote, err := engine.FlatRatePayment(principal, rate, termMonths)
	if err != nil {
		return nil, err
	}

	loan := &models.Loan{
		MemberID:       memberID,
		Principal:      principal,
		TermMonths:     termMonths,
		InterestRate:   rate,
		MonthlyPayment: quote.MonthlyPayment,
		TotalAmount:    quote.TotalAmount,
		Purpose:        purpose,
		PaymentMethod:  paymentMethod,
		Status:         models.LoanStatusPending,
	}
	loan.HMAC = utils.LoanHMAC(loan.Principal, loan.InterestRate, loan.MonthlyPayment,
		loan.TotalAmount, loan.TermMonths, s.config.HMACSecret)

	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	s.log.Infof("Loan application %d stored for member %d: %.2f over %d months at %.2f%%",
		loan.ID, memberID, principal, termMonths, rate)
	return loan, nil
}

// GetLoan loads a loan and verifies its integrity HMAC
func (s *Service) GetLoan(ctx context.Context, loanID int64) (*models.Loan, error) {
	loan, err := s.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !utils.VerifyLoanHMAC(loan.HMAC, loan.Principal, loan.InterestRate,
		loan.MonthlyPayment, loan.TotalAmount, loan.TermMonths, s.config.HMACSecret) {
		return nil, fmt.Errorf("loan %d failed integrity check", loanID)
	}
	return loan, nil
}

// ApproveLoan materializes the amortization schedule for a pending loan and
// activates it. The schedule uses the declining-balance model; the headline
// monthly_payment stored at application time keeps its flat-rate value. The
// repository write is atomic and at-most-once, so approving twice returns
// a conflict instead of duplicating rows.
func (s *Service) ApproveLoan(ctx context.Context, loanID int64) ([]models.ScheduleEntry, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusPending {
		return nil, ErrNotApprovable
	}

	entries, err := engine.BuildSchedule(loan.ID, loan.Principal, loan.InterestRate,
		loan.TermMonths, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveSchedule(ctx, loan.ID, entries); err != nil {
		return nil, err
	}
	if err := s.store.UpdateLoanStatus(ctx, loan.ID, models.LoanStatusActive); err != nil {
		return nil, err
	}

	s.log.Infof("Loan %d approved, %d schedule entries written", loan.ID, len(entries))
	s.notifyDecision(ctx, loan, true)
	return entries, nil
}

// notifyDecision emails the borrowing member about an approval or rejection.
// The decision itself is already committed; a failed notification is logged,
// not propagated.
func (s *Service) notifyDecision(ctx context.Context, loan *models.Loan, approved bool) {
	if s.mailer == nil {
		return
	}
	member, err := s.store.FindMemberByID(ctx, loan.MemberID)
	if err != nil {
		s.log.Errorf("Failed to load member %d for loan decision email: %v", loan.MemberID, err)
		return
	}
	if err := s.mailer.SendLoanDecision(member.Email, member.Username, loan.ID, approved, loan.MonthlyPayment); err != nil {
		s.log.Errorf("Failed to send loan decision email for loan %d: %v", loan.ID, err)
	}
}

// RejectLoan moves a pending loan to rejected
func (s *Service) RejectLoan(ctx context.Context, loanID int64) error {
	loan, err := s.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return err
	}
	if loan.Status != models.LoanStatusPending {
		return ErrNotApprovable
	}
	if err := s.store.UpdateLoanStatus(ctx, loanID, models.LoanStatusRejected); err != nil {
		return err
	}
	s.log.Infof("Loan %d rejected", loanID)
	s.notifyDecision(ctx, loan, false)
	return nil
}

// LoanSchedule returns the monthly amortization table for a loan
func (s *Service) LoanSchedule(ctx context.Context, loanID int64) ([]models.ScheduleEntry, error) {
	if _, err := s.store.FindLoanByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.store.FindSchedule(ctx, loanID)
}
