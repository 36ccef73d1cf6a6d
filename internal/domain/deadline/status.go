// internal/domain/deadline/status.go
package deadline

import "strings"

// Status is the lifecycle state of a deadline.
type Status string

const (
	StatusOpen    Status = "open"
	StatusSnoozed Status = "snoozed"
	StatusDone    Status = "done"
	StatusMissed  Status = "missed"
)

// AllStatuses lists the statuses in display order.
var AllStatuses = []Status{StatusOpen, StatusSnoozed, StatusMissed, StatusDone}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range AllStatuses {
		if st == candidate {
			return st, true
		}
	}
	return "", false
}
