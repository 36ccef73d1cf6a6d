// internal/domain/deadline/deadline.go
package deadline

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// Deadline is a dated obligation on a case, owned by an attorney.
// Corresponds to the 'deadlines' table.
type Deadline struct {
	ID          uuid.UUID
	CaseID      string
	CaseCaption string
	OwnerID     sql.NullInt64 // Foreign Key to attorneys.id
	DueAt       time.Time
	Timezone    string // IANA name the deadline was entered in
	Priority    int    // 1 (highest) .. 5 (lowest)
	Status      Status
	SnoozeUntil sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PriorityLabel buckets the numeric priority for display and filtering.
type PriorityLabel string

const (
	PriorityHigh   PriorityLabel = "High"
	PriorityMedium PriorityLabel = "Medium"
	PriorityLow    PriorityLabel = "Low"
)

// LabelFor maps 1-2 to High, 3 to Medium and everything else to Low.
func LabelFor(priority int) PriorityLabel {
	switch {
	case priority <= 2:
		return PriorityHigh
	case priority == 3:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// PriorityLabel returns the display bucket of d's priority.
func (d *Deadline) PriorityLabel() PriorityLabel {
	return LabelFor(d.Priority)
}

// ValidPriority reports whether p is within the accepted 1..5 range.
func ValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}
