// internal/app/planner.go
package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"deadline_tracker_bot/internal/domain/reminder"

	"github.com/google/uuid"
)

var (
	// ErrNoFutureReminders is returned when every requested reminder instant has
	// already passed. Callers must ask the user to pick a different lead time.
	ErrNoFutureReminders = errors.New("select at least one reminder time in the future")
	ErrUnknownLeadTime   = errors.New("unknown reminder lead time")
	ErrUnknownChannel    = errors.New("unknown notification channel")
	ErrInvalidDueAt      = errors.New("invalid due date")
)

// datetimeLocalLayout is the minute-precision form most users type.
const datetimeLocalLayout = "2006-01-02T15:04"

var dueAtLayouts = []string{
	datetimeLocalLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseDueAt accepts RFC 3339 or a zone-less date-time interpreted in loc.
func ParseDueAt(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: value is empty", ErrInvalidDueAt)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dueAtLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DDTHH:MM)", ErrInvalidDueAt, value)
}

// ExpandReminders turns a reminder request into concrete records for
// deadlineID. Each lead time yields notify_at = due - offset; instants that
// are not strictly after now are dropped, and every surviving instant is
// emitted once per channel. Output order follows lead-time order, then
// channel order, with duplicates collapsed.
func ExpandReminders(deadlineID uuid.UUID, req reminder.Request, now time.Time) ([]*reminder.Record, error) {
	if req.DueAt.IsZero() {
		return nil, fmt.Errorf("%w: value is empty", ErrInvalidDueAt)
	}

	labels := uniqueTrimmed(req.LeadTimes)
	if len(labels) == 0 {
		labels = []string{reminder.DefaultLeadTime}
	}
	channelLabels := uniqueTrimmed(req.Channels)
	if len(channelLabels) == 0 {
		channelLabels = []string{reminder.DefaultChannel}
	}

	channels := make([]reminder.Channel, 0, len(channelLabels))
	seen := make(map[reminder.Channel]bool, len(channelLabels))
	for _, label := range channelLabels {
		ch, ok := reminder.ChannelFor(label)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, label)
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		channels = append(channels, ch)
	}

	var records []*reminder.Record
	seenLead := make(map[string]bool, len(labels))
	for _, raw := range labels {
		label, offset, ok := reminder.LookupLeadTime(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLeadTime, raw)
		}
		if seenLead[label] {
			continue
		}
		seenLead[label] = true
		notifyAt := req.DueAt.Add(-offset)
		if !notifyAt.After(now) {
			continue
		}
		for _, ch := range channels {
			records = append(records, &reminder.Record{
				DeadlineID: deadlineID,
				NotifyAt:   notifyAt,
				Channel:    ch,
				LeadTime:   label,
			})
		}
	}

	if len(records) == 0 {
		return nil, ErrNoFutureReminders
	}
	return records, nil
}

func uniqueTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
