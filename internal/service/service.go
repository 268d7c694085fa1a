package service

import (
	"context"
	"errors"
	"time"

	"github.com/koopkredit/lending-service/internal/config"
	"github.com/koopkredit/lending-service/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotApprovable      = errors.New("loan is not in a pending state")
	ErrNotActive          = errors.New("loan is not active")
)

// Store is the persistence surface the service needs. *repository.Repository
// satisfies it.
type Store interface {
	CreateMember(ctx context.Context, member *models.Member) error
	FindMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	FindMemberByID(ctx context.Context, id int64) (*models.Member, error)
	ApproveMember(ctx context.Context, id int64) error

	CreateLoan(ctx context.Context, loan *models.Loan) error
	FindLoanByID(ctx context.Context, id int64) (*models.Loan, error)
	UpdateLoanStatus(ctx context.Context, id int64, status models.LoanStatus) error
	SaveSchedule(ctx context.Context, loanID int64, entries []models.ScheduleEntry) error
	FindSchedule(ctx context.Context, loanID int64) ([]models.ScheduleEntry, error)
	MarkEarliestUnpaid(ctx context.Context, loanID int64) error

	CreatePayment(ctx context.Context, payment *models.LoanPayment) error
	FindPaymentByID(ctx context.Context, id int64) (*models.LoanPayment, error)
	SetPaymentStatus(ctx context.Context, id int64, status models.PaymentStatus, verifiedBy int64) error
	CountVerifiedPayments(ctx context.Context, loanID int64) (int, error)

	FindRateSetting(ctx context.Context) (*models.RateSetting, error)
	UpdateRateSetting(ctx context.Context, rate float64, updatedBy int64) error
	CreateRateChange(ctx context.Context, change *models.RateChange) error
	FindRateChangesAfter(ctx context.Context, asOf time.Time) ([]models.RateChange, error)
}

// RateFeed supplies an external reference rate for the admin rate screen.
type RateFeed interface {
	GetKeyRate() (float64, error)
}

// DecisionMailer notifies members of loan approval and rejection.
type DecisionMailer interface {
	SendLoanDecision(to, username string, loanID int64, approved bool, monthlyPayment float64) error
}

// Service handles business logic
type Service struct {
	store    Store
	log      *logrus.Logger
	config   *config.Config
	rateFeed RateFeed
	mailer   DecisionMailer
	now      func() time.Time
}

// NewService initializes a new service
func NewService(store Store, log *logrus.Logger, cfg *config.Config, feed RateFeed, mailer DecisionMailer) *Service {
	return &Service{
		store:    store,
		log:      log,
		config:   cfg,
		rateFeed: feed,
		mailer:   mailer,
		now:      time.Now,
	}
}
