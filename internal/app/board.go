// internal/app/board.go
package app

import (
	"sort"
	"time"

	"deadline_tracker_bot/internal/domain/deadline"
)

// DeadlineFilter narrows a deadline listing. Zero values match everything.
type DeadlineFilter struct {
	Status   deadline.Status
	Priority deadline.PriorityLabel
	CaseID   string
	OwnerID  int64
}

func (f DeadlineFilter) matches(d *deadline.Deadline) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Priority != "" && d.PriorityLabel() != f.Priority {
		return false
	}
	if f.CaseID != "" && d.CaseID != f.CaseID {
		return false
	}
	if f.OwnerID != 0 && (!d.OwnerID.Valid || d.OwnerID.Int64 != f.OwnerID) {
		return false
	}
	return true
}

// FilterDeadlines returns the deadlines matching f, earliest due first.
// The input slice is left untouched.
func FilterDeadlines(deadlines []*deadline.Deadline, f DeadlineFilter) []*deadline.Deadline {
	out := make([]*deadline.Deadline, 0, len(deadlines))
	for _, d := range deadlines {
		if f.matches(d) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out
}

// BoardStats are the headline counts shown above a deadline listing.
type BoardStats struct {
	Urgent    int // overdue, today, tomorrow or within three days
	ThisWeek  int // today through seven days out
	Pending   int // anything not done
	Completed int
}

// ComputeStats counts deadlines per dashboard bucket as of now.
func ComputeStats(deadlines []*deadline.Deadline, now time.Time) BoardStats {
	var s BoardStats
	for _, d := range deadlines {
		level := d.Urgency(now)
		if level <= deadline.LevelUrgent {
			s.Urgent++
		}
		if level >= deadline.LevelToday && level <= deadline.LevelSoon {
			s.ThisWeek++
		}
		if d.Status == deadline.StatusDone {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	return s
}
