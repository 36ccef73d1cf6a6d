package scheduler

import (
	"context"
	"time"

	"deadline_tracker_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Dispatcher is the work the scheduler triggers; *app.DispatchService satisfies it.
type Dispatcher interface {
	DispatchDueReminders(ctx context.Context, now time.Time) (app.DispatchResult, error)
	SweepDeadlines(ctx context.Context, now time.Time) (missed, reopened int64, err error)
}

const (
	dispatchTimeout = 1 * time.Minute
	sweepTimeout    = 2 * time.Minute
)

// ReminderScheduler runs reminder delivery and the deadline sweep on cron specs.
type ReminderScheduler struct {
	cronEngine   *cron.Cron
	dispatcher   Dispatcher
	logger       *logrus.Entry
	dispatchSpec string
	sweepSpec    string
	now          func() time.Time
}

func NewReminderScheduler(
	dispatcher Dispatcher,
	logger *logrus.Entry,
	loc *time.Location,
	dispatchSpec string, // e.g., "* * * * *" (every minute)
	sweepSpec string, // e.g., "*/15 * * * *"
) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScheduler{
		cronEngine:   cron.New(cron.WithLocation(loc)),
		dispatcher:   dispatcher,
		logger:       logger,
		dispatchSpec: dispatchSpec,
		sweepSpec:    sweepSpec,
		now:          time.Now,
	}
}

// Start registers both jobs and starts the cron engine. A bad spec is returned
// before anything runs.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	if _, err := s.cronEngine.AddFunc(s.dispatchSpec, s.runDispatch); err != nil {
		return err
	}
	if _, err := s.cronEngine.AddFunc(s.sweepSpec, s.runSweep); err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"dispatch_spec": s.dispatchSpec,
		"sweep_spec":    s.sweepSpec,
	}).Info("Reminder scheduler started with jobs.")
	return nil
}

func (s *ReminderScheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	result, err := s.dispatcher.DispatchDueReminders(ctx, s.now())
	if err != nil {
		s.logger.WithError(err).Error("Error during reminder dispatch")
		return
	}
	if result.Sent+result.Failed+result.Skipped > 0 {
		s.logger.WithFields(logrus.Fields{
			"sent":    result.Sent,
			"failed":  result.Failed,
			"skipped": result.Skipped,
		}).Info("Reminder dispatch finished")
	}
}

func (s *ReminderScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, _, err := s.dispatcher.SweepDeadlines(ctx, s.now()); err != nil {
		s.logger.WithError(err).Error("Error during deadline sweep")
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
