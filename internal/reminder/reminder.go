package reminder

import (
	"context"
	"time"

	"github.com/koopkredit/lending-service/internal/config"
	"github.com/koopkredit/lending-service/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DueStore is the slice of the repository the reminder job reads and writes.
type DueStore interface {
	FindDueUnpaid(ctx context.Context, before time.Time) ([]repository.DueEntry, error)
	ApplyLateFee(ctx context.Context, entryID int64, fee float64) (bool, error)
}

// Mailer sends the member-facing reminder emails.
type Mailer interface {
	SendPaymentReminder(to, username string, dueDate time.Time, amount, lateFee float64, isOverdue bool) error
}

// Job scans upcoming and overdue schedule entries once a day, applies the
// configured late fee to newly overdue entries and emails the member.
type Job struct {
	store  DueStore
	mailer Mailer
	cfg    *config.Config
	log    *logrus.Logger
	now    func() time.Time
}

// NewJob creates the reminder job
func NewJob(store DueStore, mailer Mailer, cfg *config.Config, log *logrus.Logger) *Job {
	return &Job{store: store, mailer: mailer, cfg: cfg, log: log, now: time.Now}
}

// Start registers the job with a cron scheduler and starts it. The returned
// cron can be stopped on shutdown.
func (j *Job) Start() (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(j.cfg.ReminderCron, j.Run); err != nil {
		return nil, err
	}
	c.Start()
	j.log.Infof("Reminder job scheduled: %s", j.cfg.ReminderCron)
	return c, nil
}

// Run executes one reminder sweep. Entries due within the reminder window get
// an upcoming-payment email; entries already past due get the late fee
// (applied at most once) and an overdue email. Per-entry failures are logged
// and skipped so one bad address does not stall the sweep.
func (j *Job) Run() {
	ctx := context.Background()
	now := j.now()
	horizon := now.AddDate(0, 0, j.cfg.ReminderDays)

	due, err := j.store.FindDueUnpaid(ctx, horizon)
	if err != nil {
		j.log.Errorf("Reminder sweep failed: %v", err)
		return
	}

	for _, d := range due {
		overdue := d.DueDate.Before(now)
		fee := d.LateFee
		if overdue && fee == 0 {
			applied, err := j.store.ApplyLateFee(ctx, d.EntryID, j.cfg.LateFee)
			if err != nil {
				j.log.Errorf("Failed to apply late fee to entry %d: %v", d.EntryID, err)
				continue
			}
			if applied {
				fee = j.cfg.LateFee
			}
		}

		if err := j.mailer.SendPaymentReminder(d.Email, d.Username, d.DueDate, d.Amount, fee, overdue); err != nil {
			j.log.Errorf("Failed to send reminder for entry %d: %v", d.EntryID, err)
		}
	}

	j.log.Infof("Reminder sweep finished: %d entries processed", len(due))
}
