package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// LoanHMAC generates an HMAC over a loan's financial fields so tampered rows
// are detected when the loan is loaded.
func LoanHMAC(principal, rate, monthlyPayment, totalAmount float64, termMonths int, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	data := fmt.Sprintf("%.2f|%.4f|%.2f|%.2f|%d", principal, rate, monthlyPayment, totalAmount, termMonths)
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyLoanHMAC reports whether the stored HMAC matches the loan's fields
func VerifyLoanHMAC(stored string, principal, rate, monthlyPayment, totalAmount float64, termMonths int, secret string) bool {
	expected := LoanHMAC(principal, rate, monthlyPayment, totalAmount, termMonths, secret)
	return hmac.Equal([]byte(stored), []byte(expected))
}
