package engine

import "github.com/koopkredit/lending-service/internal/models"

// Progress computes how many payments remain for a loan. Payments are counted
// semi-monthly, two per month of term, regardless of the monthly cadence of
// the generated schedule. The two cadences coexist on purpose; see the loan
// progress endpoint which returns both.
func Progress(termMonths, verifiedCount int) models.LoanProgress {
	total := termMonths * 2
	remaining := total - verifiedCount
	if remaining < 0 {
		remaining = 0
	}
	var percent float64
	if total > 0 {
		percent = Round2(float64(total-remaining) / float64(total) * 100)
	}
	return models.LoanProgress{
		Total:     total,
		Paid:      total - remaining,
		Remaining: remaining,
		Percent:   percent,
	}
}
