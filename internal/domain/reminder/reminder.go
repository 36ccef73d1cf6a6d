// internal/domain/reminder/reminder.go
package reminder

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Request is the transient user selection that gets expanded into Records.
type Request struct {
	DueAt     time.Time
	LeadTimes []string // labels from the lead-time table, e.g. "1 day"
	Channels  []string // labels from the channel table, e.g. "email"
}

// Record is one persisted notification: a single instant on a single channel.
// Corresponds to the 'deadline_reminders' table.
type Record struct {
	ID         uuid.UUID
	DeadlineID uuid.UUID
	NotifyAt   time.Time
	Channel    Channel
	LeadTime   string
	Sent       bool
	SentAt     sql.NullTime
}
