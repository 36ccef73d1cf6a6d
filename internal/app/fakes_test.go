package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"deadline_tracker_bot/internal/domain/attorney"
	"deadline_tracker_bot/internal/domain/deadline"
	"deadline_tracker_bot/internal/domain/reminder"
	idb "deadline_tracker_bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeDeadlineRepo struct {
	mu        sync.Mutex
	deadlines map[uuid.UUID]*deadline.Deadline
	getErr    error
}

func newFakeDeadlineRepo(list ...*deadline.Deadline) *fakeDeadlineRepo {
	r := &fakeDeadlineRepo{deadlines: map[uuid.UUID]*deadline.Deadline{}}
	for _, d := range list {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		r.deadlines[d.ID] = d
	}
	return r
}

func (r *fakeDeadlineRepo) Create(_ context.Context, d *deadline.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	r.deadlines[d.ID] = &cp
	return nil
}

func (r *fakeDeadlineRepo) GetByID(_ context.Context, id uuid.UUID) (*deadline.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	d, ok := r.deadlines[id]
	if !ok {
		return nil, idb.ErrDeadlineNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeadlineRepo) Update(_ context.Context, d *deadline.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deadlines[d.ID]; !ok {
		return idb.ErrDeadlineNotFound
	}
	cp := *d
	r.deadlines[d.ID] = &cp
	return nil
}

func (r *fakeDeadlineRepo) sorted(keep func(*deadline.Deadline) bool) []*deadline.Deadline {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*deadline.Deadline
	for _, d := range r.deadlines {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt.Before(out[j].DueAt) })
	return out
}

func (r *fakeDeadlineRepo) ListAll(context.Context) ([]*deadline.Deadline, error) {
	return r.sorted(func(*deadline.Deadline) bool { return true }), nil
}

func (r *fakeDeadlineRepo) ListByOwner(_ context.Context, ownerID int64) ([]*deadline.Deadline, error) {
	return r.sorted(func(d *deadline.Deadline) bool {
		return d.OwnerID.Valid && d.OwnerID.Int64 == ownerID
	}), nil
}

func (r *fakeDeadlineRepo) BulkUpdateStatus(_ context.Context, ids []uuid.UUID, status deadline.Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if d, ok := r.deadlines[id]; ok && d.Status != status {
			d.Status = status
			n++
		}
	}
	return n, nil
}

func (r *fakeDeadlineRepo) MarkMissed(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.deadlines {
		if d.Status == deadline.StatusOpen && d.DueAt.Before(cutoff) {
			d.Status = deadline.StatusMissed
			n++
		}
	}
	return n, nil
}

func (r *fakeDeadlineRepo) ReopenSnoozed(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, d := range r.deadlines {
		if d.Status == deadline.StatusSnoozed && d.SnoozeUntil.Valid && !d.SnoozeUntil.Time.After(cutoff) {
			d.Status = deadline.StatusOpen
			d.SnoozeUntil.Valid = false
			n++
		}
	}
	return n, nil
}

func (r *fakeDeadlineRepo) status(id uuid.UUID) deadline.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deadlines[id].Status
}

type fakeReminderRepo struct {
	mu        sync.Mutex
	records   []*reminder.Record
	deadlines *fakeDeadlineRepo
	createErr error
	countErr  error
}

func (r *fakeReminderRepo) BulkCreate(_ context.Context, records []*reminder.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		cp := *rec
		r.records = append(r.records, &cp)
	}
	return nil
}

func (r *fakeReminderRepo) ListByDeadline(_ context.Context, deadlineID uuid.UUID) ([]*reminder.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reminder.Record
	for _, rec := range r.records {
		if rec.DeadlineID == deadlineID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) ListDue(_ context.Context, at time.Time) ([]*reminder.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reminder.Record
	for _, rec := range r.records {
		if rec.Sent || rec.NotifyAt.After(at) {
			continue
		}
		if r.deadlines != nil {
			if d, ok := r.deadlines.deadlines[rec.DeadlineID]; ok && (d.Status == deadline.StatusDone || d.Status == deadline.StatusSnoozed) {
				continue
			}
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NotifyAt.Before(out[j].NotifyAt) })
	return out, nil
}

func (r *fakeReminderRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			rec.Sent = true
			rec.SentAt.Time, rec.SentAt.Valid = sentAt, true
			return nil
		}
	}
	return idb.ErrReminderNotFound
}

func (r *fakeReminderRepo) CountPending(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return nil, r.countErr
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := map[uuid.UUID]int{}
	for _, rec := range r.records {
		if want[rec.DeadlineID] && !rec.Sent {
			out[rec.DeadlineID]++
		}
	}
	return out, nil
}

func (r *fakeReminderRepo) sentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Sent {
			n++
		}
	}
	return n
}

type fakeAttorneyRepo struct {
	mu        sync.Mutex
	nextID    int64
	attorneys map[int64]*attorney.Attorney
	createErr error
}

func newFakeAttorneyRepo(list ...*attorney.Attorney) *fakeAttorneyRepo {
	r := &fakeAttorneyRepo{attorneys: map[int64]*attorney.Attorney{}}
	for _, a := range list {
		r.nextID++
		if a.ID == 0 {
			a.ID = r.nextID
		}
		r.attorneys[a.ID] = a
	}
	return r
}

func (r *fakeAttorneyRepo) Create(_ context.Context, a *attorney.Attorney) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.attorneys[a.ID] = &cp
	return nil
}

func (r *fakeAttorneyRepo) GetByID(_ context.Context, id int64) (*attorney.Attorney, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attorneys[id]
	if !ok {
		return nil, idb.ErrAttorneyNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAttorneyRepo) GetByTelegramID(_ context.Context, telegramID int64) (*attorney.Attorney, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attorneys {
		if a.TelegramID == telegramID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, idb.ErrAttorneyNotFound
}

func (r *fakeAttorneyRepo) Update(_ context.Context, a *attorney.Attorney) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attorneys[a.ID]; !ok {
		return idb.ErrAttorneyNotFound
	}
	cp := *a
	r.attorneys[a.ID] = &cp
	return nil
}

func (r *fakeAttorneyRepo) list(keep func(*attorney.Attorney) bool) []*attorney.Attorney {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*attorney.Attorney
	for _, a := range r.attorneys {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeAttorneyRepo) ListActive(context.Context) ([]*attorney.Attorney, error) {
	return r.list(func(a *attorney.Attorney) bool { return a.IsActive }), nil
}

func (r *fakeAttorneyRepo) ListAll(context.Context) ([]*attorney.Attorney, error) {
	return r.list(func(*attorney.Attorney) bool { return true }), nil
}

type sentMessage struct {
	to      int64
	subject string
	body    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) Send(_ context.Context, to *attorney.Attorney, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{to: to.TelegramID, subject: subject, body: body})
	return nil
}

var errBoom = errors.New("boom")
