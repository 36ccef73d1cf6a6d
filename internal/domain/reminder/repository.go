// internal/domain/reminder/repository.go
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines operations for deadline reminder records.
type Repository interface {
	// BulkCreate persists all records atomically, assigning their IDs.
	BulkCreate(ctx context.Context, records []*Record) error
	ListByDeadline(ctx context.Context, deadlineID uuid.UUID) ([]*Record, error)
	// ListDue fetches unsent records with notify_at at or before the given instant,
	// skipping records whose deadline is done or snoozed.
	ListDue(ctx context.Context, notifyAtOrBefore time.Time) ([]*Record, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	// CountPending returns how many unsent records each deadline has.
	CountPending(ctx context.Context, deadlineIDs []uuid.UUID) (map[uuid.UUID]int, error)
}
