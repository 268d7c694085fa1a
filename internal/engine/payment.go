package engine

import "math"

// Quote is the result of a flat-rate loan application calculation.
type Quote struct {
	TotalInterest  float64
	TotalAmount    float64
	MonthlyPayment float64
}

// Round2 rounds to 2 decimal places (currency minor units).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FlatRatePayment computes the payment for a loan application using the flat
// interest model: interest is charged once on the full principal for the
// whole term, not on a declining balance.
//
//	interest = principal * (rate/100) * term
//	payment  = (principal + interest) / term
func FlatRatePayment(principal, ratePct float64, term int) (Quote, error) {
	if err := validatePositive("principal", principal); err != nil {
		return Quote{}, err
	}
	if err := validateTerm(term); err != nil {
		return Quote{}, err
	}
	if err := validateRate(ratePct); err != nil {
		return Quote{}, err
	}

	totalInterest := principal * (ratePct / 100) * float64(term)
	totalAmount := principal + totalInterest
	return Quote{
		TotalInterest:  Round2(totalInterest),
		TotalAmount:    Round2(totalAmount),
		MonthlyPayment: Round2(totalAmount / float64(term)),
	}, nil
}

// AmortizingPayment computes the fixed monthly payment for a declining-balance
// schedule: P*r / (1 - (1+r)^-n) with r the monthly decimal rate. A zero rate
// degenerates to principal/term. This formula backs the schedule generator and
// deliberately differs from FlatRatePayment; call sites pick one, never both.
func AmortizingPayment(principal, ratePct float64, term int) (float64, error) {
	if err := validatePositive("principal", principal); err != nil {
		return 0, err
	}
	if err := validateTerm(term); err != nil {
		return 0, err
	}
	if err := validateRate(ratePct); err != nil {
		return 0, err
	}

	if ratePct == 0 {
		return Round2(principal / float64(term)), nil
	}
	r := ratePct / 100 / 12
	payment := principal * r / (1 - math.Pow(1+r, -float64(term)))
	return Round2(payment), nil
}
