package service

import (
	"context"
	"errors"
	"time"

	"github.com/koopkredit/lending-service/internal/models"
	"github.com/koopkredit/lending-service/internal/repository"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	members   map[int64]*models.Member
	loans     map[int64]*models.Loan
	schedules map[int64][]models.ScheduleEntry
	payments  map[int64]*models.LoanPayment
	setting   models.RateSetting
	changes   []models.RateChange

	nextID         int64
	failRateLookup bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   make(map[int64]*models.Member),
		loans:     make(map[int64]*models.Loan),
		schedules: make(map[int64][]models.ScheduleEntry),
		payments:  make(map[int64]*models.LoanPayment),
		setting:   models.RateSetting{CurrentRate: 2.0},
		nextID:    1,
	}
}

func (f *fakeStore) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeStore) CreateMember(_ context.Context, m *models.Member) error {
	m.ID = f.id()
	f.members[m.ID] = m
	return nil
}

func (f *fakeStore) FindMemberByEmail(_ context.Context, email string) (*models.Member, error) {
	for _, m := range f.members {
		if m.Email == email {
			return m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindMemberByID(_ context.Context, id int64) (*models.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) ApproveMember(_ context.Context, id int64) error {
	m, ok := f.members[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.Approved = true
	return nil
}

func (f *fakeStore) CreateLoan(_ context.Context, l *models.Loan) error {
	l.ID = f.id()
	f.loans[l.ID] = l
	return nil
}

func (f *fakeStore) FindLoanByID(_ context.Context, id int64) (*models.Loan, error) {
	l, ok := f.loans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) UpdateLoanStatus(_ context.Context, id int64, status models.LoanStatus) error {
	l, ok := f.loans[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Status = status
	return nil
}

func (f *fakeStore) SaveSchedule(_ context.Context, loanID int64, entries []models.ScheduleEntry) error {
	if _, ok := f.schedules[loanID]; ok {
		return repository.ErrScheduleExists
	}
	f.schedules[loanID] = append([]models.ScheduleEntry(nil), entries...)
	return nil
}

func (f *fakeStore) FindSchedule(_ context.Context, loanID int64) ([]models.ScheduleEntry, error) {
	return f.schedules[loanID], nil
}

func (f *fakeStore) MarkEarliestUnpaid(_ context.Context, loanID int64) error {
	entries := f.schedules[loanID]
	for i := range entries {
		if !entries[i].Paid {
			now := time.Now()
			entries[i].Paid = true
			entries[i].PaidAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.LoanPayment) error {
	p.ID = f.id()
	f.payments[p.ID] = p
	return nil
}

func (f *fakeStore) FindPaymentByID(_ context.Context, id int64) (*models.LoanPayment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SetPaymentStatus(_ context.Context, id int64, status models.PaymentStatus, verifiedBy int64) error {
	p, ok := f.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status != models.PaymentStatusPending {
		return repository.ErrPaymentDecided
	}
	p.Status = status
	p.VerifiedBy = &verifiedBy
	return nil
}

func (f *fakeStore) CountVerifiedPayments(_ context.Context, loanID int64) (int, error) {
	count := 0
	for _, p := range f.payments {
		if p.LoanID == loanID && p.Status == models.PaymentStatusVerified {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) FindRateSetting(_ context.Context) (*models.RateSetting, error) {
	if f.failRateLookup {
		return nil, errors.New("connection refused")
	}
	cp := f.setting
	return &cp, nil
}

func (f *fakeStore) UpdateRateSetting(_ context.Context, rate float64, updatedBy int64) error {
	f.setting.CurrentRate = rate
	f.setting.UpdatedBy = updatedBy
	f.setting.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) CreateRateChange(_ context.Context, c *models.RateChange) error {
	c.ID = f.id()
	f.changes = append(f.changes, *c)
	return nil
}

func (f *fakeStore) FindRateChangesAfter(_ context.Context, asOf time.Time) ([]models.RateChange, error) {
	if f.failRateLookup {
		return nil, errors.New("connection refused")
	}
	var out []models.RateChange
	for _, c := range f.changes {
		if c.EffectiveDate.After(asOf) {
			out = append(out, c)
		}
	}
	return out, nil
}
