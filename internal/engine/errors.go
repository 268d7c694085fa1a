package engine

import "fmt"

// ValidationError reports out-of-domain numeric input to a calculation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validatePositive(field string, v float64) error {
	if v <= 0 {
		return &ValidationError{Field: field, Reason: "must be positive"}
	}
	return nil
}

func validateTerm(term int) error {
	if term <= 0 {
		return &ValidationError{Field: "term", Reason: "must be positive"}
	}
	return nil
}

func validateRate(rate float64) error {
	if rate < 0 {
		return &ValidationError{Field: "rate", Reason: "must not be negative"}
	}
	return nil
}
