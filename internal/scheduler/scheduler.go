package scheduler

import (
	"fmt"

	"github.com/movelend/lending-service/internal/riskengine"
	"github.com/movelend/lending-service/internal/service"
	"github.com/movelend/lending-service/internal/utils/email"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// reminderHorizonSeconds is how far ahead the reminder job looks for
// upcoming payments.
const reminderHorizonSeconds = 24 * 3600

// Scheduler runs the nightly maintenance jobs: reputation decay for
// inactive users, payment reminders, and payment-request expiry.
type Scheduler struct {
	cron   *cron.Cron
	svc    *service.Service
	mailer *email.Sender
	log    *logrus.Logger
	now    func() int64
}

// New creates a scheduler around the service and mailer.
func New(svc *service.Service, mailer *email.Sender, log *logrus.Logger, now func() int64) *Scheduler {
	return &Scheduler{cron: cron.New(), svc: svc, mailer: mailer, log: log, now: now}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 3 * * *", s.runDecay); err != nil {
		return fmt.Errorf("failed to schedule decay job: %w", err)
	}
	if _, err := s.cron.AddFunc("0 8 * * *", s.runReminders); err != nil {
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}
	s.cron.Start()
	s.log.Info("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runDecay() {
	decayed, err := s.svc.ApplyReputationDecay()
	if err != nil {
		s.log.WithError(err).Error("Reputation decay job failed")
		return
	}
	s.log.Infof("Reputation decay job finished: %d profiles decayed", decayed)
}

func (s *Scheduler) runReminders() {
	if expired, err := s.svc.ExpireStalePaymentRequests(); err != nil {
		s.log.WithError(err).Error("Payment request expiry failed")
	} else if expired > 0 {
		s.log.Infof("Reminder job expired %d payment requests", expired)
	}

	reminders, err := s.svc.DueReminders(reminderHorizonSeconds)
	if err != nil {
		s.log.WithError(err).Error("Reminder job failed to list due payments")
		return
	}

	now := s.now()
	sent := 0
	for _, reminder := range reminders {
		entry := riskengine.PaymentScheduleEntry{DueDate: reminder.DueDate}
		status := riskengine.StatusOf(entry, now)
		if err := s.mailer.SendPaymentReminder(reminder, status); err != nil {
			// Already logged by the sender; keep going so one bad
			// address does not starve the rest.
			continue
		}
		sent++
	}
	s.log.Infof("Reminder job finished: %d of %d reminders sent", sent, len(reminders))
}
