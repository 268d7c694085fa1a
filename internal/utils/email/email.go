package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/koopkredit/lending-service/internal/config"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPaymentReminder sends a payment reminder email
func (s *Sender) SendPaymentReminder(to, username string, dueDate time.Time, amount, lateFee float64, isOverdue bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if isOverdue {
		e.Subject = "Overdue Loan Payment Notification"
	} else {
		e.Subject = "Upcoming Loan Payment Reminder"
	}

	// Format email body
	body := fmt.Sprintf(
		"Dear %s,\n\n", username,
	)
	if isOverdue {
		body += fmt.Sprintf(
			"Your loan payment of %.2f was due on %s and is now overdue.\n"+
				"A late fee of %.2f has been applied.\n"+
				"Please make the payment as soon as possible to avoid further fees.\n",
			amount, dueDate.Format("2006-01-02"), lateFee,
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your loan payment of %.2f is due on %s.\n"+
				"Please submit your payment before the due date.\n",
			amount, dueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nKoopKredit Cooperative"
	e.Text = []byte(body)

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// SendLoanDecision notifies a member that a loan was approved or rejected
func (s *Sender) SendLoanDecision(to, username string, loanID int64, approved bool, monthlyPayment float64) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}

	body := fmt.Sprintf(
		"Dear %s,\n\n", username,
	)
	if approved {
		e.Subject = "Loan Application Approved"
		body += fmt.Sprintf(
			"Your loan application #%d has been approved.\n"+
				"Your monthly payment is %.2f. The first payment is due one month from today.\n",
			loanID, monthlyPayment,
		)
	} else {
		e.Subject = "Loan Application Rejected"
		body += fmt.Sprintf(
			"We are sorry to inform you that your loan application #%d has been rejected.\n"+
				"Please contact the cooperative office for details.\n",
			loanID,
		)
	}
	body += "\nBest regards,\nKoopKredit Cooperative"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	err := e.Send(addr, auth)
	if err != nil {
		s.logger.Errorf("Failed to send loan decision to %s: %v", to, err)
		return fmt.Errorf("failed to send loan decision: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
