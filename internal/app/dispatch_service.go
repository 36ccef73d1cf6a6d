// internal/app/dispatch_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deadline_tracker_bot/internal/domain/attorney"
	"deadline_tracker_bot/internal/domain/deadline"
	"deadline_tracker_bot/internal/domain/reminder"
	idb "deadline_tracker_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoRecipientAddress is returned by senders when the attorney lacks the
// contact detail their channel needs.
var ErrNoRecipientAddress = errors.New("attorney has no address for this channel")

// ChannelSender delivers one reminder over one channel.
type ChannelSender interface {
	Send(ctx context.Context, to *attorney.Attorney, subject, body string) error
}

// DispatchResult summarises one dispatch run.
type DispatchResult struct {
	Sent    int
	Failed  int
	Skipped int
}

// DispatchService delivers due reminders and keeps deadline statuses current.
type DispatchService struct {
	reminderRepo reminder.Repository
	deadlineRepo deadline.Repository
	attorneyRepo attorney.Repository
	senders      map[reminder.Channel]ChannelSender
	location     *time.Location
	logger       *logrus.Entry
}

func NewDispatchService(
	rr reminder.Repository,
	dr deadline.Repository,
	ar attorney.Repository,
	senders map[reminder.Channel]ChannelSender,
	loc *time.Location,
	logger *logrus.Entry,
) *DispatchService {
	if loc == nil {
		loc = time.Local
	}
	return &DispatchService{
		reminderRepo: rr,
		deadlineRepo: dr,
		attorneyRepo: ar,
		senders:      senders,
		location:     loc,
		logger:       logger,
	}
}

// DispatchDueReminders sends every unsent reminder due at or before now.
// Records are marked sent whether or not delivery succeeded, so a broken
// channel does not resend on every tick.
func (s *DispatchService) DispatchDueReminders(ctx context.Context, now time.Time) (DispatchResult, error) {
	var result DispatchResult

	due, err := s.reminderRepo.ListDue(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to list due reminders: %w", err)
	}
	if len(due) == 0 {
		return result, nil
	}
	s.logger.WithField("count", len(due)).Info("Dispatching due reminders")

	deadlines := make(map[uuid.UUID]*deadline.Deadline)
	owners := make(map[int64]*attorney.Attorney)

	for _, rec := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		recLogger := s.logger.WithFields(logrus.Fields{
			"reminder_id": rec.ID,
			"deadline_id": rec.DeadlineID,
			"channel":     rec.Channel,
		})

		d, ok := deadlines[rec.DeadlineID]
		if !ok {
			d, err = s.deadlineRepo.GetByID(ctx, rec.DeadlineID)
			if err != nil && !errors.Is(err, idb.ErrDeadlineNotFound) {
				recLogger.WithError(err).Error("Failed to load deadline for reminder")
				result.Failed++
				continue // leave unsent, the lookup may succeed next tick
			}
			deadlines[rec.DeadlineID] = d
		}

		owner := s.lookupOwner(ctx, d, owners, recLogger)
		sender := s.senders[rec.Channel]

		switch {
		case d == nil || owner == nil:
			recLogger.Warn("Reminder has no active recipient, skipping")
			result.Skipped++
		case sender == nil:
			recLogger.Warn("No sender configured for channel, skipping")
			result.Skipped++
		default:
			subject, body := composeReminder(d, rec, now, s.location)
			if err := sender.Send(ctx, owner, subject, body); err != nil {
				recLogger.WithError(err).Error("Failed to send reminder")
				result.Failed++
			} else {
				recLogger.WithField("attorney_id", owner.ID).Info("Reminder sent")
				result.Sent++
			}
		}

		if err := s.reminderRepo.MarkSent(ctx, rec.ID, now); err != nil {
			recLogger.WithError(err).Error("Failed to mark reminder as sent")
		}
	}
	return result, nil
}

func (s *DispatchService) lookupOwner(ctx context.Context, d *deadline.Deadline, cache map[int64]*attorney.Attorney, log *logrus.Entry) *attorney.Attorney {
	if d == nil || !d.OwnerID.Valid {
		return nil
	}
	if a, ok := cache[d.OwnerID.Int64]; ok {
		return a
	}
	a, err := s.attorneyRepo.GetByID(ctx, d.OwnerID.Int64)
	if err != nil {
		if !errors.Is(err, idb.ErrAttorneyNotFound) {
			log.WithError(err).Error("Failed to load deadline owner")
		}
		a = nil
	} else if !a.IsActive {
		a = nil
	}
	cache[d.OwnerID.Int64] = a
	return a
}

func composeReminder(d *deadline.Deadline, rec *reminder.Record, now time.Time, loc *time.Location) (string, string) {
	caption := d.CaseCaption
	if caption == "" {
		caption = "Case deadline"
	}
	subject := fmt.Sprintf("Reminder: %s due %s", caption, d.DueAt.In(loc).Format("Jan 02 15:04"))
	body := fmt.Sprintf(
		"%s (case %s) is due %s.\nUrgency: %s. Priority: %d (%s).\nScheduled %s before the deadline.",
		caption,
		d.CaseID,
		d.DueAt.In(loc).Format("Mon Jan 02 2006 15:04 MST"),
		d.Urgency(now),
		d.Priority,
		d.PriorityLabel(),
		rec.LeadTime,
	)
	return subject, body
}

// SweepDeadlines marks open deadlines past due as missed and reopens snoozed
// deadlines whose snooze has ended.
func (s *DispatchService) SweepDeadlines(ctx context.Context, now time.Time) (missed, reopened int64, err error) {
	reopened, err = s.deadlineRepo.ReopenSnoozed(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to reopen snoozed deadlines: %w", err)
	}
	missed, err = s.deadlineRepo.MarkMissed(ctx, now)
	if err != nil {
		return 0, reopened, fmt.Errorf("failed to mark missed deadlines: %w", err)
	}
	if missed > 0 || reopened > 0 {
		s.logger.WithFields(logrus.Fields{"missed": missed, "reopened": reopened}).Info("Deadline sweep applied")
	}
	return missed, reopened, nil
}
