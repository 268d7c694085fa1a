package engine

import (
	"time"

	"github.com/koopkredit/lending-service/internal/models"
)

// BuildSchedule produces the full amortization table for a loan using the
// declining-balance model. The first due date is one month after start, each
// following period one month later. Interest is computed unrounded on the
// outstanding balance; the balance unwinds in whole cents so every row's
// principal portion matches the actual balance decrement. The final period
// absorbs the payment-rounding residual: its principal portion is the entire
// outstanding balance and its amount adjusts accordingly, so the portions sum
// back to the original principal exactly and the table ends at zero.
//
// The function is pure: persisting the rows is the repository's job and must
// be all-or-nothing.
func BuildSchedule(loanID int64, principal, ratePct float64, term int, start time.Time) ([]models.ScheduleEntry, error) {
	payment, err := AmortizingPayment(principal, ratePct, term)
	if err != nil {
		return nil, err
	}

	monthlyRate := ratePct / 100 / 12
	balance := principal
	dueDate := start.AddDate(0, 1, 0)

	entries := make([]models.ScheduleEntry, 0, term)
	for period := 1; period <= term; period++ {
		interest := balance * monthlyRate
		amount := payment
		var principalPortion float64
		if period < term {
			principalPortion = Round2(payment - interest)
			balance = Round2(balance - principalPortion)
		} else {
			principalPortion = balance
			amount = Round2(principalPortion + interest)
			balance = 0
		}

		entries = append(entries, models.ScheduleEntry{
			LoanID:           loanID,
			Period:           period,
			DueDate:          dueDate,
			Amount:           amount,
			PrincipalPortion: principalPortion,
			InterestPortion:  Round2(interest),
			RemainingBalance: balance,
			Paid:             false,
		})
		dueDate = dueDate.AddDate(0, 1, 0)
	}
	return entries, nil
}
