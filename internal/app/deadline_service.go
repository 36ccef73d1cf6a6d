// internal/app/deadline_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"deadline_tracker_bot/internal/domain/deadline"
	"deadline_tracker_bot/internal/domain/reminder"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDueAtNotFuture      = errors.New("due date must be in the future")
	ErrInvalidPriority     = fmt.Errorf("priority must be between %d and %d", deadline.MinPriority, deadline.MaxPriority)
	ErrDeadlineClosed      = errors.New("deadline is already done")
	ErrInvalidSnooze       = errors.New("snooze must end in the future and before the deadline is due")
	ErrNoDeadlinesSelected = errors.New("no deadlines selected")
	ErrEmptyPatch          = errors.New("nothing to update")
)

// NewDeadlineInput carries the fields a user supplies for a new deadline.
type NewDeadlineInput struct {
	CaseID      string
	CaseCaption string
	OwnerID     int64 // 0 leaves the deadline unassigned
	DueAt       time.Time
	Priority    int // 0 means default
}

// DeadlinePatch lists the fields an edit changes. Nil fields are left alone.
type DeadlinePatch struct {
	CaseCaption *string
	DueAt       *time.Time
	Priority    *int
	OwnerID     *int64 // 0 unassigns
}

func (p DeadlinePatch) empty() bool {
	return p.CaseCaption == nil && p.DueAt == nil && p.Priority == nil && p.OwnerID == nil
}

// DeadlineView is a deadline decorated with the derived values shown in listings.
type DeadlineView struct {
	Deadline         *deadline.Deadline
	Urgency          deadline.Level
	PendingReminders int
}

// DeadlineService implements deadline tracking and reminder scheduling.
type DeadlineService struct {
	deadlineRepo deadline.Repository
	reminderRepo reminder.Repository
	location     *time.Location
	logger       *logrus.Entry
	now          func() time.Time
}

func NewDeadlineService(dr deadline.Repository, rr reminder.Repository, loc *time.Location, logger *logrus.Entry) *DeadlineService {
	if loc == nil {
		loc = time.Local
	}
	return &DeadlineService{
		deadlineRepo: dr,
		reminderRepo: rr,
		location:     loc,
		logger:       logger,
		now:          time.Now,
	}
}

// Location is the zone used to interpret and display zone-less times.
func (s *DeadlineService) Location() *time.Location {
	return s.location
}

// CreateDeadline validates and stores a new open deadline.
func (s *DeadlineService) CreateDeadline(ctx context.Context, in NewDeadlineInput) (*deadline.Deadline, error) {
	if !in.DueAt.After(s.now()) {
		return nil, ErrDueAtNotFuture
	}
	priority := in.Priority
	if priority == 0 {
		priority = deadline.DefaultPriority
	}
	if !deadline.ValidPriority(priority) {
		return nil, ErrInvalidPriority
	}

	d := &deadline.Deadline{
		CaseID:      in.CaseID,
		CaseCaption: in.CaseCaption,
		DueAt:       in.DueAt,
		Timezone:    s.location.String(),
		Priority:    priority,
		Status:      deadline.StatusOpen,
	}
	if in.OwnerID != 0 {
		d.OwnerID = sql.NullInt64{Int64: in.OwnerID, Valid: true}
	}

	if err := s.deadlineRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create deadline: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"deadline_id": d.ID,
		"case_id":     d.CaseID,
		"due_at":      d.DueAt.Format(time.RFC3339),
	}).Info("Deadline created")
	return d, nil
}

func (s *DeadlineService) GetDeadline(ctx context.Context, id uuid.UUID) (*deadline.Deadline, error) {
	return s.deadlineRepo.GetByID(ctx, id)
}

// UpdateDeadline applies an edit to an existing deadline. A new due date must
// lie in the future; moving it out reopens a missed deadline and ends a snooze
// that would no longer finish before the due date. Reminders already
// scheduled keep their instants.
func (s *DeadlineService) UpdateDeadline(ctx context.Context, id uuid.UUID, patch DeadlinePatch) (*deadline.Deadline, error) {
	if patch.empty() {
		return nil, ErrEmptyPatch
	}
	if patch.DueAt != nil && !patch.DueAt.After(s.now()) {
		return nil, ErrDueAtNotFuture
	}
	if patch.Priority != nil && !deadline.ValidPriority(*patch.Priority) {
		return nil, ErrInvalidPriority
	}

	d, err := s.deadlineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CaseCaption != nil {
		d.CaseCaption = *patch.CaseCaption
	}
	if patch.Priority != nil {
		d.Priority = *patch.Priority
	}
	if patch.OwnerID != nil {
		d.OwnerID = sql.NullInt64{Int64: *patch.OwnerID, Valid: *patch.OwnerID != 0}
	}
	if patch.DueAt != nil {
		d.DueAt = *patch.DueAt
		switch {
		case d.Status == deadline.StatusMissed:
			d.Status = deadline.StatusOpen
		case d.Status == deadline.StatusSnoozed && !d.SnoozeUntil.Time.Before(d.DueAt):
			d.Status = deadline.StatusOpen
			d.SnoozeUntil = sql.NullTime{}
		}
	}

	if err := s.deadlineRepo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update deadline %s: %w", id, err)
	}
	s.logger.WithFields(logrus.Fields{
		"deadline_id": d.ID,
		"due_at":      d.DueAt.Format(time.RFC3339),
		"status":      d.Status,
	}).Info("Deadline updated")
	return d, nil
}

// ScheduleReminders expands the requested lead times and channels against the
// deadline's due date and stores the resulting records in one batch.
func (s *DeadlineService) ScheduleReminders(ctx context.Context, deadlineID uuid.UUID, leadTimes, channels []string) ([]*reminder.Record, error) {
	d, err := s.deadlineRepo.GetByID(ctx, deadlineID)
	if err != nil {
		return nil, err
	}
	if d.Status == deadline.StatusDone {
		return nil, ErrDeadlineClosed
	}

	records, err := ExpandReminders(d.ID, reminder.Request{
		DueAt:     d.DueAt,
		LeadTimes: leadTimes,
		Channels:  channels,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.reminderRepo.BulkCreate(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store reminders for deadline %s: %w", d.ID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"deadline_id": d.ID,
		"reminders":   len(records),
	}).Info("Reminders scheduled")
	return records, nil
}

// MarkComplete sets a single deadline to done. Completing a done deadline is a no-op.
func (s *DeadlineService) MarkComplete(ctx context.Context, id uuid.UUID) (*deadline.Deadline, error) {
	d, err := s.deadlineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == deadline.StatusDone {
		return d, nil
	}
	d.Status = deadline.StatusDone
	d.SnoozeUntil = sql.NullTime{}
	if err := s.deadlineRepo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to complete deadline %s: %w", id, err)
	}
	return d, nil
}

// BulkComplete marks every listed deadline done and reports how many changed.
func (s *DeadlineService) BulkComplete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoDeadlinesSelected
	}
	n, err := s.deadlineRepo.BulkUpdateStatus(ctx, ids, deadline.StatusDone)
	if err != nil {
		return 0, fmt.Errorf("failed to complete selected deadlines: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"requested": len(ids), "updated": n}).Info("Bulk completion applied")
	return n, nil
}

// Snooze hides a deadline until the given instant.
func (s *DeadlineService) Snooze(ctx context.Context, id uuid.UUID, until time.Time) (*deadline.Deadline, error) {
	d, err := s.deadlineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == deadline.StatusDone {
		return nil, ErrDeadlineClosed
	}
	if !until.After(s.now()) || !until.Before(d.DueAt) {
		return nil, ErrInvalidSnooze
	}
	d.Status = deadline.StatusSnoozed
	d.SnoozeUntil = sql.NullTime{Time: until, Valid: true}
	if err := s.deadlineRepo.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to snooze deadline %s: %w", id, err)
	}
	return d, nil
}

func (s *DeadlineService) loadDeadlines(ctx context.Context, f DeadlineFilter) ([]*deadline.Deadline, error) {
	var (
		all []*deadline.Deadline
		err error
	)
	if f.OwnerID != 0 {
		all, err = s.deadlineRepo.ListByOwner(ctx, f.OwnerID)
	} else {
		all, err = s.deadlineRepo.ListAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}
	return FilterDeadlines(all, f), nil
}

// ListDeadlines returns filtered deadlines with urgency and pending reminder counts.
func (s *DeadlineService) ListDeadlines(ctx context.Context, f DeadlineFilter) ([]DeadlineView, error) {
	deadlines, err := s.loadDeadlines(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(deadlines) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(deadlines))
	for i, d := range deadlines {
		ids[i] = d.ID
	}
	pending, err := s.reminderRepo.CountPending(ctx, ids)
	if err != nil {
		// Counts are decorative; the listing is still useful without them.
		s.logger.WithError(err).Warn("Failed to count pending reminders")
		pending = map[uuid.UUID]int{}
	}

	now := s.now()
	views := make([]DeadlineView, len(deadlines))
	for i, d := range deadlines {
		views[i] = DeadlineView{
			Deadline:         d,
			Urgency:          d.Urgency(now),
			PendingReminders: pending[d.ID],
		}
	}
	return views, nil
}

// Stats computes the board counts over the deadlines visible to ownerID (0 for all).
func (s *DeadlineService) Stats(ctx context.Context, ownerID int64) (BoardStats, error) {
	deadlines, err := s.loadDeadlines(ctx, DeadlineFilter{OwnerID: ownerID})
	if err != nil {
		return BoardStats{}, err
	}
	return ComputeStats(deadlines, s.now()), nil
}

func (s *DeadlineService) ListReminders(ctx context.Context, deadlineID uuid.UUID) ([]*reminder.Record, error) {
	if _, err := s.deadlineRepo.GetByID(ctx, deadlineID); err != nil {
		return nil, err
	}
	records, err := s.reminderRepo.ListByDeadline(ctx, deadlineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders for deadline %s: %w", deadlineID, err)
	}
	return records, nil
}

// ExportCalendar renders the filtered deadlines as an iCalendar document.
func (s *DeadlineService) ExportCalendar(ctx context.Context, f DeadlineFilter, calendarName string) (string, error) {
	deadlines, err := s.loadDeadlines(ctx, f)
	if err != nil {
		return "", err
	}
	return GenerateDeadlinesICS(deadlines, calendarName, s.now()), nil
}
