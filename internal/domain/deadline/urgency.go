// internal/domain/deadline/urgency.go
package deadline

import "time"

// Level is a coarse bucket describing how soon a deadline falls due.
// Lower values are more urgent.
type Level int

const (
	LevelOverdue Level = iota
	LevelToday
	LevelTomorrow
	LevelUrgent
	LevelSoon
	LevelUpcoming
)

const day = 24 * time.Hour

var levelNames = [...]string{
	LevelOverdue:  "overdue",
	LevelToday:    "today",
	LevelTomorrow: "tomorrow",
	LevelUrgent:   "urgent",
	LevelSoon:     "soon",
	LevelUpcoming: "upcoming",
}

func (l Level) String() string {
	if l < LevelOverdue || l > LevelUpcoming {
		return "unknown"
	}
	return levelNames[l]
}

// DaysUntil returns the whole number of days from now until due, rounded up.
// A partial day counts as a full one; negative gaps round toward zero.
func DaysUntil(due, now time.Time) int64 {
	diff := due.Sub(now)
	days := int64(diff / day)
	if diff > 0 && diff%day != 0 {
		days++
	}
	return days
}

// Classify buckets due relative to now. Anything strictly in the past is
// overdue; otherwise the ceiling day count is compared against 0, 1, 3 and 7.
func Classify(due, now time.Time) Level {
	if due.Before(now) {
		return LevelOverdue
	}
	switch days := DaysUntil(due, now); {
	case days == 0:
		return LevelToday
	case days == 1:
		return LevelTomorrow
	case days <= 3:
		return LevelUrgent
	case days <= 7:
		return LevelSoon
	default:
		return LevelUpcoming
	}
}

// Urgency classifies d against now.
func (d *Deadline) Urgency(now time.Time) Level {
	return Classify(d.DueAt, now)
}
