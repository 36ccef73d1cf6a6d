// internal/domain/deadline/repository.go
package deadline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving deadlines.
type Repository interface {
	Create(ctx context.Context, d *Deadline) error
	GetByID(ctx context.Context, id uuid.UUID) (*Deadline, error)
	Update(ctx context.Context, d *Deadline) error // Status, Priority, DueAt, SnoozeUntil, OwnerID
	ListAll(ctx context.Context) ([]*Deadline, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*Deadline, error)

	// BulkUpdateStatus sets status on every listed deadline and returns how many rows changed.
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status Status) (int64, error)
	// MarkMissed moves open deadlines due before cutoff to missed.
	MarkMissed(ctx context.Context, cutoff time.Time) (int64, error)
	// ReopenSnoozed moves snoozed deadlines whose snooze ended at or before cutoff back to open.
	ReopenSnoozed(ctx context.Context, cutoff time.Time) (int64, error)
}
