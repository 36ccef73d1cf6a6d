// internal/app/calendar.go
package app

import (
	"fmt"
	"strings"
	"time"

	"deadline_tracker_bot/internal/domain/deadline"

	ics "github.com/arran4/golang-ical"
)

const (
	icsProductID   = "-//Deadline Tracker//Case Deadlines//EN"
	icsDefaultName = "Case Deadlines"
)

// icsNewlines collapses CRLF so TEXT values only ever carry escaped \n.
var icsNewlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// GenerateDeadlinesICS builds an RFC 5545 calendar with one event per deadline.
// Deadlines without a due date are left out.
func GenerateDeadlinesICS(deadlines []*deadline.Deadline, calendarName string, now time.Time) string {
	if strings.TrimSpace(calendarName) == "" {
		calendarName = icsDefaultName
	}

	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(icsNewlines.Replace(calendarName))
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)

	for _, d := range deadlines {
		if d.DueAt.IsZero() {
			continue
		}
		summary := d.CaseCaption
		if summary == "" {
			summary = "Case deadline"
		}

		event := cal.AddEvent(fmt.Sprintf("deadline-%s@deadline-tracker", d.ID))
		event.SetDtStampTime(now)
		event.SetStartAt(d.DueAt)
		event.SetSummary(icsNewlines.Replace(summary))
		event.SetDescription(fmt.Sprintf("Case: %s\nPriority: %d (%s)\nStatus: %s",
			icsNewlines.Replace(d.CaseID), d.Priority, d.PriorityLabel(), d.Status))
	}
	return cal.Serialize()
}
