// internal/infra/telegram/format.go
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"deadline_tracker_bot/internal/app"
	"deadline_tracker_bot/internal/domain/deadline"
	"deadline_tracker_bot/internal/domain/reminder"

	"github.com/google/uuid"
)

const (
	callbackDone   = "dl_done"
	callbackRemind = "dl_remind"
	callbackSep    = ":"
)

var urgencyBadges = map[deadline.Level]string{
	deadline.LevelOverdue:  "🔴",
	deadline.LevelToday:    "🟠",
	deadline.LevelTomorrow: "🟠",
	deadline.LevelUrgent:   "🟡",
	deadline.LevelSoon:     "🔵",
	deadline.LevelUpcoming: "⚪",
}

func callbackData(action string, id uuid.UUID) string {
	return action + callbackSep + id.String()
}

// parseCallbackData splits "action:uuid" as produced by callbackData.
func parseCallbackData(data string) (string, uuid.UUID, error) {
	action, rawID, ok := strings.Cut(strings.TrimSpace(data), callbackSep)
	if !ok {
		return "", uuid.Nil, fmt.Errorf("malformed callback data %q", data)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid deadline id in callback %q: %w", data, err)
	}
	return action, id, nil
}

// parseDeadlineIDs parses every argument as a deadline id.
func parseDeadlineIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, a := range args {
		id, err := uuid.Parse(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("%q is not a deadline id", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseReminderPayload reads "<lead times> | <channels>", both comma
// separated and both optional. Missing parts fall back to the planner defaults.
func parseReminderPayload(payload string) (leadTimes, channels []string) {
	leadPart, channelPart, _ := strings.Cut(payload, "|")
	return splitList(leadPart), splitList(channelPart)
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// editFields are the deadline fields /edit_deadline accepts.
const editFields = "caption, due, priority, owner"

// parseDeadlineEdit turns "<field> <value>" into a patch. Owner edits need a
// repository lookup and are handled by the caller.
func parseDeadlineEdit(field, value string, loc *time.Location) (app.DeadlinePatch, error) {
	var patch app.DeadlinePatch
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "caption":
		patch.CaseCaption = &value
	case "due":
		dueAt, err := app.ParseDueAt(value, loc)
		if err != nil {
			return patch, err
		}
		patch.DueAt = &dueAt
	case "priority":
		p, err := strconv.Atoi(value)
		if err != nil {
			return patch, fmt.Errorf("%w: %q is not a number", app.ErrInvalidPriority, value)
		}
		patch.Priority = &p
	default:
		return patch, fmt.Errorf("unknown field %q, use one of: %s", field, editFields)
	}
	return patch, nil
}

// parseListFilter reads optional status and priority words in any order.
func parseListFilter(args []string) (app.DeadlineFilter, error) {
	var f app.DeadlineFilter
	for _, a := range args {
		word := strings.ToLower(strings.TrimSpace(a))
		if word == "" || word == "all" {
			continue
		}
		if st, ok := deadline.ParseStatus(word); ok {
			f.Status = st
			continue
		}
		switch word {
		case "high":
			f.Priority = deadline.PriorityHigh
		case "medium":
			f.Priority = deadline.PriorityMedium
		case "low":
			f.Priority = deadline.PriorityLow
		default:
			if strings.HasPrefix(word, "case=") {
				f.CaseID = strings.TrimSpace(a[len("case="):])
				continue
			}
			return f, fmt.Errorf("unknown filter %q", a)
		}
	}
	return f, nil
}

func formatDeadline(v app.DeadlineView, loc *time.Location) string {
	d := v.Deadline
	caption := d.CaseCaption
	if caption == "" {
		caption = "(no caption)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s · %s\n", urgencyBadges[v.Urgency], caption, v.Urgency)
	fmt.Fprintf(&b, "Case: %s\n", d.CaseID)
	fmt.Fprintf(&b, "Due: %s\n", d.DueAt.In(loc).Format("Mon Jan 02 2006 15:04 MST"))
	fmt.Fprintf(&b, "Priority: %d (%s) · Status: %s", d.Priority, d.PriorityLabel(), d.Status)
	if d.Status == deadline.StatusSnoozed && d.SnoozeUntil.Valid {
		fmt.Fprintf(&b, " until %s", d.SnoozeUntil.Time.In(loc).Format("Jan 02 15:04"))
	}
	if v.PendingReminders > 0 {
		fmt.Fprintf(&b, "\nPending reminders: %d", v.PendingReminders)
	}
	fmt.Fprintf(&b, "\nID: %s", d.ID)
	return b.String()
}

func formatStats(s app.BoardStats) string {
	return fmt.Sprintf("Urgent: %d\nDue this week: %d\nPending: %d\nCompleted: %d",
		s.Urgent, s.ThisWeek, s.Pending, s.Completed)
}

func formatReminders(records []*reminder.Record, loc *time.Location) string {
	if len(records) == 0 {
		return "No reminders scheduled."
	}
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		state := "pending"
		if r.Sent {
			state = "sent"
		}
		fmt.Fprintf(&b, "%s · %s · %s before · %s",
			r.NotifyAt.In(loc).Format("Jan 02 15:04"), r.Channel, r.LeadTime, state)
	}
	return b.String()
}
