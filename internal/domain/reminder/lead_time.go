// internal/domain/reminder/lead_time.go
package reminder

import (
	"strings"
	"time"
)

// DefaultLeadTime is used when a request selects no lead time at all.
const DefaultLeadTime = "1 day"

type leadTime struct {
	Label  string
	Offset time.Duration
}

// leadTimes is kept in the order offered to users.
var leadTimes = []leadTime{
	{"15 minutes", 15 * time.Minute},
	{"30 minutes", 30 * time.Minute},
	{"1 hour", time.Hour},
	{"2 hours", 2 * time.Hour},
	{"4 hours", 4 * time.Hour},
	{"8 hours", 8 * time.Hour},
	{"1 day", 24 * time.Hour},
	{"2 days", 2 * 24 * time.Hour},
	{"3 days", 3 * 24 * time.Hour},
	{"1 week", 7 * 24 * time.Hour},
	{"2 weeks", 14 * 24 * time.Hour},
}

// LookupLeadTime matches a label case-insensitively and returns its
// canonical spelling and offset.
func LookupLeadTime(label string) (string, time.Duration, bool) {
	label = strings.TrimSpace(label)
	for _, lt := range leadTimes {
		if strings.EqualFold(lt.Label, label) {
			return lt.Label, lt.Offset, true
		}
	}
	return "", 0, false
}

// LeadTimeLabels returns every supported label, shortest first.
func LeadTimeLabels() []string {
	labels := make([]string, len(leadTimes))
	for i, lt := range leadTimes {
		labels[i] = lt.Label
	}
	return labels
}
