package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/koopkredit/lending-service/internal/config"
	"github.com/koopkredit/lending-service/internal/engine"
	"github.com/koopkredit/lending-service/internal/models"
	"github.com/koopkredit/lending-service/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store Store) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		HMACSecret: "test-hmac-secret",
	}
	return NewService(store, logger, cfg, nil, nil)
}

type decisionCall struct {
	to             string
	loanID         int64
	approved       bool
	monthlyPayment float64
}

type fakeDecisionMailer struct {
	calls []decisionCall
}

func (f *fakeDecisionMailer) SendLoanDecision(to, _ string, loanID int64, approved bool, monthlyPayment float64) error {
	f.calls = append(f.calls, decisionCall{to: to, loanID: loanID, approved: approved, monthlyPayment: monthlyPayment})
	return nil
}

func memberCtx(id string) context.Context {
	return context.WithValue(context.Background(), "userID", id)
}

func seedMember(store *fakeStore, approved bool) *models.Member {
	m := &models.Member{Username: "alice", Email: "alice@example.com", Role: "member", Approved: approved}
	store.CreateMember(context.Background(), m)
	return m
}

func TestApplyForLoanFlatRateQuote(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	m := seedMember(store, true)

	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "livestock", "cash")
	require.NoError(t, err)

	assert.Equal(t, m.ID, loan.MemberID)
	assert.Equal(t, models.LoanStatusPending, loan.Status)
	assert.Equal(t, 2.0, loan.InterestRate)
	assert.Equal(t, 5600.0, loan.TotalAmount)
	assert.Equal(t, 933.33, loan.MonthlyPayment)
	assert.NotEmpty(t, loan.HMAC)
}

func TestApplyForLoanUsesScheduledRate(t *testing.T) {
	store := newFakeStore()
	store.changes = []models.RateChange{
		{NewRate: 3.0, EffectiveDate: time.Now().AddDate(0, 0, 10)},
	}
	svc := newTestService(store)
	seedMember(store, true)

	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)
	assert.Equal(t, 3.0, loan.InterestRate)
}

func TestApplyForLoanRejectsBadTerm(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)

	_, err := svc.ApplyForLoan(memberCtx("1"), 5000, 7, "", "cash")
	var validationErr *engine.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestApplyForLoanRequiresApprovedMember(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, false)

	_, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	var validationErr *engine.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestApproveLoanGeneratesSchedule(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)

	entries, err := svc.ApproveLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	stored, err := svc.GetLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, stored.Status)

	var principalSum float64
	for _, e := range entries {
		principalSum += e.PrincipalPortion
	}
	assert.InDelta(t, 5000, principalSum, 0.01)
}

func TestApproveLoanTwiceConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)

	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)

	// An active loan is no longer approvable.
	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	assert.ErrorIs(t, err, ErrNotApprovable)

	// Even if the status were reset, the schedule write itself refuses to
	// run twice.
	store.loans[loan.ID].Status = models.LoanStatusPending
	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	assert.ErrorIs(t, err, repository.ErrScheduleExists)
	assert.Len(t, store.schedules[loan.ID], 6)
}

func TestLoanDecisionEmails(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	mailer := &fakeDecisionMailer{}
	svc.mailer = mailer
	seedMember(store, true)

	approved, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)
	rejected, err := svc.ApplyForLoan(memberCtx("1"), 2000, 3, "", "cash")
	require.NoError(t, err)

	_, err = svc.ApproveLoan(memberCtx("1"), approved.ID)
	require.NoError(t, err)
	require.NoError(t, svc.RejectLoan(memberCtx("1"), rejected.ID))

	require.Len(t, mailer.calls, 2)
	assert.Equal(t, "alice@example.com", mailer.calls[0].to)
	assert.Equal(t, approved.ID, mailer.calls[0].loanID)
	assert.True(t, mailer.calls[0].approved)
	assert.Equal(t, approved.MonthlyPayment, mailer.calls[0].monthlyPayment)
	assert.Equal(t, rejected.ID, mailer.calls[1].loanID)
	assert.False(t, mailer.calls[1].approved)
}

func TestRejectLoan(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)

	require.NoError(t, svc.RejectLoan(memberCtx("1"), loan.ID))
	assert.Equal(t, models.LoanStatusRejected, store.loans[loan.ID].Status)

	assert.ErrorIs(t, svc.RejectLoan(memberCtx("1"), loan.ID), ErrNotApprovable)
}

func TestGetLoanDetectsTampering(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)

	store.loans[loan.ID].Principal = 50000

	_, err = svc.GetLoan(memberCtx("1"), loan.ID)
	assert.Error(t, err)
}

func TestPaymentVerificationFlow(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)
	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)

	payment, err := svc.SubmitPayment(memberCtx("1"), loan.ID, 466.67, "cash")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)

	verified, err := svc.VerifyPayment(memberCtx("1"), payment.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusVerified, verified.Status)

	entries, err := svc.LoanSchedule(memberCtx("1"), loan.ID)
	require.NoError(t, err)
	assert.True(t, entries[0].Paid)
	assert.False(t, entries[1].Paid)
}

func TestVerifyPaymentTwiceConflicts(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)
	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)

	payment, err := svc.SubmitPayment(memberCtx("1"), loan.ID, 466.67, "cash")
	require.NoError(t, err)
	_, err = svc.VerifyPayment(memberCtx("1"), payment.ID, true)
	require.NoError(t, err)

	// A decided payment cannot be decided again, and the conflict is
	// distinguishable from a missing payment.
	_, err = svc.VerifyPayment(memberCtx("1"), payment.ID, false)
	assert.ErrorIs(t, err, repository.ErrPaymentDecided)
	assert.Equal(t, models.PaymentStatusVerified, store.payments[payment.ID].Status)
}

func TestRejectedPaymentsDoNotCount(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)
	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)

	payment, err := svc.SubmitPayment(memberCtx("1"), loan.ID, 466.67, "cash")
	require.NoError(t, err)
	_, err = svc.VerifyPayment(memberCtx("1"), payment.ID, false)
	require.NoError(t, err)

	progress, err := svc.LoanProgress(memberCtx("1"), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, progress.Total)
	assert.Equal(t, 12, progress.Remaining)
}

func TestLoanProgressCadence(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 6, "", "cash")
	require.NoError(t, err)
	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		payment, err := svc.SubmitPayment(memberCtx("1"), loan.ID, 466.67, "cash")
		require.NoError(t, err)
		_, err = svc.VerifyPayment(memberCtx("1"), payment.ID, true)
		require.NoError(t, err)
	}

	// Schedule cadence is monthly, progress cadence semi-monthly. Both hold
	// for the same loan.
	entries, err := svc.LoanSchedule(memberCtx("1"), loan.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	progress, err := svc.LoanProgress(memberCtx("1"), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, progress.Total)
	assert.Equal(t, 9, progress.Remaining)
	assert.Equal(t, 25.0, progress.Percent)
}

func TestLoanCompletesAfterAllPayments(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedMember(store, true)
	loan, err := svc.ApplyForLoan(memberCtx("1"), 5000, 3, "", "cash")
	require.NoError(t, err)
	_, err = svc.ApproveLoan(memberCtx("1"), loan.ID)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		payment, err := svc.SubmitPayment(memberCtx("1"), loan.ID, 900, "cash")
		require.NoError(t, err)
		_, err = svc.VerifyPayment(memberCtx("1"), payment.ID, true)
		require.NoError(t, err)
	}

	assert.Equal(t, models.LoanStatusCompleted, store.loans[loan.ID].Status)
}

func TestEffectiveRateFallsBackOnLookupFailure(t *testing.T) {
	store := newFakeStore()
	store.setting.CurrentRate = 4.5
	store.failRateLookup = true
	svc := newTestService(store)

	rate := svc.EffectiveRate(context.Background(), time.Now())
	assert.Equal(t, engine.DefaultRate, rate)
}

func TestUpdateRateImmediate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	change, err := svc.UpdateRate(memberCtx("9"), 3.5, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, 2.0, change.OldRate)
	assert.Equal(t, 3.5, store.setting.CurrentRate)
	assert.Empty(t, store.changes)
}

func TestUpdateRateScheduled(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	effective := time.Now().AddDate(0, 0, 10)

	change, err := svc.UpdateRate(memberCtx("9"), 3.0, effective)
	require.NoError(t, err)
	assert.Equal(t, 3.0, change.NewRate)

	// The base rate stays untouched until the change takes effect; reads
	// already see the scheduled rate.
	assert.Equal(t, 2.0, store.setting.CurrentRate)
	require.Len(t, store.changes, 1)

	rate := svc.EffectiveRate(context.Background(), time.Now())
	assert.Equal(t, 3.0, rate)
}

func TestUpdateRateRejectsNegative(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.UpdateRate(memberCtx("9"), -1.0, time.Now())
	var validationErr *engine.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
