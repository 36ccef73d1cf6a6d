package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"deadline_tracker_bot/internal/domain/deadline"
	idb "deadline_tracker_bot/internal/infra/database"

	"github.com/google/uuid"
)

var serviceNow = time.Date(2025, time.April, 14, 10, 0, 0, 0, time.UTC)

func newTestDeadlineService(t *testing.T, list ...*deadline.Deadline) (*DeadlineService, *fakeDeadlineRepo, *fakeReminderRepo) {
	t.Helper()

	dr := newFakeDeadlineRepo(list...)
	rr := &fakeReminderRepo{deadlines: dr}
	svc := NewDeadlineService(dr, rr, time.UTC, testLogger())
	svc.now = func() time.Time { return serviceNow }
	return svc, dr, rr
}

func TestCreateDeadlineValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestDeadlineService(t)
	ctx := context.Background()

	d, err := svc.CreateDeadline(ctx, NewDeadlineInput{
		CaseID:  "CV-7",
		DueAt:   serviceNow.Add(72 * time.Hour),
		OwnerID: 4,
	})
	if err != nil {
		t.Fatalf("CreateDeadline: %v", err)
	}
	if d.ID == uuid.Nil || d.Status != deadline.StatusOpen || d.Priority != deadline.DefaultPriority {
		t.Fatalf("unexpected deadline: %+v", d)
	}
	if !d.OwnerID.Valid || d.OwnerID.Int64 != 4 || d.Timezone != "UTC" {
		t.Fatalf("owner or timezone not set: %+v", d)
	}

	if _, err := svc.CreateDeadline(ctx, NewDeadlineInput{CaseID: "CV-7", DueAt: serviceNow.Add(-time.Minute)}); !errors.Is(err, ErrDueAtNotFuture) {
		t.Fatalf("past due: got %v", err)
	}
	if _, err := svc.CreateDeadline(ctx, NewDeadlineInput{CaseID: "CV-7", DueAt: serviceNow}); !errors.Is(err, ErrDueAtNotFuture) {
		t.Fatalf("due == now: got %v", err)
	}
	for _, p := range []int{-1, 6, 9} {
		if _, err := svc.CreateDeadline(ctx, NewDeadlineInput{CaseID: "CV-7", DueAt: serviceNow.Add(time.Hour), Priority: p}); !errors.Is(err, ErrInvalidPriority) {
			t.Fatalf("priority %d: got %v", p, err)
		}
	}
}

func TestUpdateDeadline(t *testing.T) {
	t.Parallel()

	d := &deadline.Deadline{CaseID: "U", CaseCaption: "Old caption", DueAt: serviceNow.Add(48 * time.Hour), Priority: 3,
		Status: deadline.StatusOpen, OwnerID: sql.NullInt64{Int64: 7, Valid: true}}
	svc, dr, _ := newTestDeadlineService(t, d)
	ctx := context.Background()

	past, now := serviceNow.Add(-time.Hour), serviceNow
	zero, six := 0, 6
	rejected := map[string]struct {
		patch DeadlinePatch
		want  error
	}{
		"empty":      {DeadlinePatch{}, ErrEmptyPatch},
		"past due":   {DeadlinePatch{DueAt: &past}, ErrDueAtNotFuture},
		"due is now": {DeadlinePatch{DueAt: &now}, ErrDueAtNotFuture},
		"priority 0": {DeadlinePatch{Priority: &zero}, ErrInvalidPriority},
		"priority 6": {DeadlinePatch{Priority: &six}, ErrInvalidPriority},
	}
	for name, tc := range rejected {
		if _, err := svc.UpdateDeadline(ctx, d.ID, tc.patch); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", name, err, tc.want)
		}
	}
	caption := "x"
	if _, err := svc.UpdateDeadline(ctx, uuid.New(), DeadlinePatch{CaseCaption: &caption}); !errors.Is(err, idb.ErrDeadlineNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}
	if got, _ := dr.GetByID(ctx, d.ID); got.CaseCaption != "Old caption" || got.Priority != 3 {
		t.Fatalf("rejected edits must not persist: %+v", got)
	}

	caption = "Reply brief"
	due := serviceNow.Add(96 * time.Hour)
	priority := 1
	owner := int64(9)
	updated, err := svc.UpdateDeadline(ctx, d.ID, DeadlinePatch{CaseCaption: &caption, DueAt: &due, Priority: &priority, OwnerID: &owner})
	if err != nil {
		t.Fatalf("UpdateDeadline: %v", err)
	}
	stored, err := dr.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	for _, got := range []*deadline.Deadline{updated, stored} {
		if got.CaseCaption != "Reply brief" || !got.DueAt.Equal(due) || got.Priority != 1 ||
			got.OwnerID != (sql.NullInt64{Int64: 9, Valid: true}) || got.CaseID != "U" {
			t.Fatalf("edit not applied: %+v", got)
		}
	}

	unassign := int64(0)
	if got, err := svc.UpdateDeadline(ctx, d.ID, DeadlinePatch{OwnerID: &unassign}); err != nil || got.OwnerID.Valid {
		t.Fatalf("unassign = %+v, %v", got, err)
	}
}

func TestUpdateDeadlineDueDateReopens(t *testing.T) {
	t.Parallel()

	missed := &deadline.Deadline{CaseID: "M", DueAt: serviceNow.Add(-time.Hour), Priority: 3, Status: deadline.StatusMissed}
	snoozed := &deadline.Deadline{CaseID: "S", DueAt: serviceNow.Add(48 * time.Hour), Priority: 3, Status: deadline.StatusSnoozed,
		SnoozeUntil: sql.NullTime{Time: serviceNow.Add(24 * time.Hour), Valid: true}}
	keeps := &deadline.Deadline{CaseID: "K", DueAt: serviceNow.Add(48 * time.Hour), Priority: 3, Status: deadline.StatusSnoozed,
		SnoozeUntil: sql.NullTime{Time: serviceNow.Add(2 * time.Hour), Valid: true}}
	svc, dr, _ := newTestDeadlineService(t, missed, snoozed, keeps)
	ctx := context.Background()

	due := serviceNow.Add(12 * time.Hour)
	for _, d := range []*deadline.Deadline{missed, snoozed, keeps} {
		if _, err := svc.UpdateDeadline(ctx, d.ID, DeadlinePatch{DueAt: &due}); err != nil {
			t.Fatalf("UpdateDeadline(%s): %v", d.CaseID, err)
		}
	}

	if got := dr.status(missed.ID); got != deadline.StatusOpen {
		t.Fatalf("missed deadline with a new due date: status %s", got)
	}
	if got, _ := dr.GetByID(ctx, snoozed.ID); got.Status != deadline.StatusOpen || got.SnoozeUntil.Valid {
		t.Fatalf("snooze past the new due date should end: %+v", got)
	}
	if got, _ := dr.GetByID(ctx, keeps.ID); got.Status != deadline.StatusSnoozed || !got.SnoozeUntil.Valid {
		t.Fatalf("snooze before the new due date should stay: %+v", got)
	}
}

func TestScheduleRemindersPersistsRecords(t *testing.T) {
	t.Parallel()

	d := &deadline.Deadline{CaseID: "X", DueAt: serviceNow.Add(48 * time.Hour), Priority: 3, Status: deadline.StatusOpen}
	svc, _, rr := newTestDeadlineService(t, d)
	ctx := context.Background()

	records, err := svc.ScheduleReminders(ctx, d.ID, []string{"1 day"}, []string{"email", "push"})
	if err != nil {
		t.Fatalf("ScheduleReminders: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	stored, _ := rr.ListByDeadline(ctx, d.ID)
	if len(stored) != 2 {
		t.Fatalf("stored %d records, want 2", len(stored))
	}
	for _, r := range stored {
		if r.ID == uuid.Nil || !r.NotifyAt.Equal(serviceNow.Add(24*time.Hour)) {
			t.Fatalf("bad stored record %+v", r)
		}
	}

	if _, err := svc.ScheduleReminders(ctx, d.ID, []string{"1 week"}, nil); !errors.Is(err, ErrNoFutureReminders) {
		t.Fatalf("got %v, want ErrNoFutureReminders", err)
	}
	if _, err := svc.ScheduleReminders(ctx, uuid.New(), nil, nil); !errors.Is(err, idb.ErrDeadlineNotFound) {
		t.Fatalf("got %v, want ErrDeadlineNotFound", err)
	}

	rr.createErr = errBoom
	if _, err := svc.ScheduleReminders(ctx, d.ID, nil, nil); !errors.Is(err, errBoom) {
		t.Fatalf("repository error not propagated: %v", err)
	}
}

func TestScheduleRemindersRejectsDoneDeadline(t *testing.T) {
	t.Parallel()

	d := &deadline.Deadline{CaseID: "X", DueAt: serviceNow.Add(48 * time.Hour), Priority: 3, Status: deadline.StatusDone}
	svc, _, _ := newTestDeadlineService(t, d)
	if _, err := svc.ScheduleReminders(context.Background(), d.ID, nil, nil); !errors.Is(err, ErrDeadlineClosed) {
		t.Fatalf("got %v, want ErrDeadlineClosed", err)
	}
}

func TestMarkCompleteAndBulkComplete(t *testing.T) {
	t.Parallel()

	a := &deadline.Deadline{CaseID: "A", DueAt: serviceNow.Add(time.Hour), Priority: 3, Status: deadline.StatusSnoozed,
		SnoozeUntil: sql.NullTime{Time: serviceNow.Add(30 * time.Minute), Valid: true}}
	b := &deadline.Deadline{CaseID: "B", DueAt: serviceNow.Add(2 * time.Hour), Priority: 3, Status: deadline.StatusOpen}
	c := &deadline.Deadline{CaseID: "C", DueAt: serviceNow.Add(3 * time.Hour), Priority: 3, Status: deadline.StatusDone}
	svc, dr, _ := newTestDeadlineService(t, a, b, c)
	ctx := context.Background()

	done, err := svc.MarkComplete(ctx, a.ID)
	if err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if done.Status != deadline.StatusDone || done.SnoozeUntil.Valid {
		t.Fatalf("deadline not completed: %+v", done)
	}
	if _, err := svc.MarkComplete(ctx, a.ID); err != nil {
		t.Fatalf("completing twice should be a no-op, got %v", err)
	}

	n, err := svc.BulkComplete(ctx, []uuid.UUID{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatalf("BulkComplete: %v", err)
	}
	if n != 1 {
		t.Fatalf("BulkComplete changed %d deadlines, want 1", n)
	}
	if dr.status(b.ID) != deadline.StatusDone {
		t.Fatalf("b not completed")
	}

	if _, err := svc.BulkComplete(ctx, nil); !errors.Is(err, ErrNoDeadlinesSelected) {
		t.Fatalf("got %v, want ErrNoDeadlinesSelected", err)
	}
}

func TestSnooze(t *testing.T) {
	t.Parallel()

	d := &deadline.Deadline{CaseID: "S", DueAt: serviceNow.Add(48 * time.Hour), Priority: 3, Status: deadline.StatusOpen}
	svc, _, _ := newTestDeadlineService(t, d)
	ctx := context.Background()

	for _, until := range []time.Time{serviceNow, serviceNow.Add(-time.Hour), d.DueAt, d.DueAt.Add(time.Hour)} {
		if _, err := svc.Snooze(ctx, d.ID, until); !errors.Is(err, ErrInvalidSnooze) {
			t.Fatalf("Snooze(%v) = %v, want ErrInvalidSnooze", until, err)
		}
	}

	until := serviceNow.Add(6 * time.Hour)
	snoozed, err := svc.Snooze(ctx, d.ID, until)
	if err != nil {
		t.Fatalf("Snooze: %v", err)
	}
	if snoozed.Status != deadline.StatusSnoozed || !snoozed.SnoozeUntil.Time.Equal(until) {
		t.Fatalf("unexpected snoozed deadline %+v", snoozed)
	}
}

func TestListDeadlinesAndStats(t *testing.T) {
	t.Parallel()

	mine := &deadline.Deadline{CaseID: "M", DueAt: serviceNow.Add(30 * time.Hour), Priority: 1, Status: deadline.StatusOpen,
		OwnerID: sql.NullInt64{Int64: 7, Valid: true}}
	other := &deadline.Deadline{CaseID: "O", DueAt: serviceNow.Add(10 * time.Hour), Priority: 4, Status: deadline.StatusOpen,
		OwnerID: sql.NullInt64{Int64: 8, Valid: true}}
	closed := &deadline.Deadline{CaseID: "M", DueAt: serviceNow.Add(20 * 24 * time.Hour), Priority: 3, Status: deadline.StatusDone,
		OwnerID: sql.NullInt64{Int64: 7, Valid: true}}
	svc, _, rr := newTestDeadlineService(t, mine, other, closed)
	ctx := context.Background()

	if _, err := svc.ScheduleReminders(ctx, mine.ID, []string{"1 hour", "2 hours"}, nil); err != nil {
		t.Fatalf("ScheduleReminders: %v", err)
	}

	views, err := svc.ListDeadlines(ctx, DeadlineFilter{OwnerID: 7})
	if err != nil {
		t.Fatalf("ListDeadlines: %v", err)
	}
	if len(views) != 2 || views[0].Deadline.ID != mine.ID {
		t.Fatalf("unexpected views %+v", views)
	}
	if views[0].Urgency != deadline.LevelUrgent || views[0].PendingReminders != 2 {
		t.Fatalf("view not decorated: %+v", views[0])
	}

	all, err := svc.ListDeadlines(ctx, DeadlineFilter{Status: deadline.StatusOpen})
	if err != nil || len(all) != 2 || all[0].Deadline.ID != other.ID {
		t.Fatalf("open listing = %+v, %v", all, err)
	}

	rr.countErr = errBoom
	if views, err := svc.ListDeadlines(ctx, DeadlineFilter{}); err != nil || len(views) != 3 {
		t.Fatalf("count failure should not break listing: %d views, %v", len(views), err)
	}

	stats, err := svc.Stats(ctx, 7)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if want := (BoardStats{Urgent: 1, ThisWeek: 1, Pending: 1, Completed: 1}); stats != want {
		t.Fatalf("Stats = %+v, want %+v", stats, want)
	}
}

func TestListRemindersAndExport(t *testing.T) {
	t.Parallel()

	d := &deadline.Deadline{CaseID: "E", CaseCaption: "Opposition; due", DueAt: serviceNow.Add(5 * 24 * time.Hour), Priority: 3, Status: deadline.StatusOpen}
	svc, _, _ := newTestDeadlineService(t, d)
	ctx := context.Background()

	if _, err := svc.ListReminders(ctx, uuid.New()); !errors.Is(err, idb.ErrDeadlineNotFound) {
		t.Fatalf("got %v, want ErrDeadlineNotFound", err)
	}
	if _, err := svc.ScheduleReminders(ctx, d.ID, []string{"2 days"}, []string{"sms"}); err != nil {
		t.Fatalf("ScheduleReminders: %v", err)
	}
	records, err := svc.ListReminders(ctx, d.ID)
	if err != nil || len(records) != 1 || records[0].LeadTime != "2 days" {
		t.Fatalf("ListReminders = %+v, %v", records, err)
	}

	ics, err := svc.ExportCalendar(ctx, DeadlineFilter{}, "Firm")
	if err != nil {
		t.Fatalf("ExportCalendar: %v", err)
	}
	if !strings.Contains(ics, "X-WR-CALNAME:Firm") || !strings.Contains(ics, `SUMMARY:Opposition\; due`) {
		t.Fatalf("unexpected calendar:\n%s", ics)
	}
}
