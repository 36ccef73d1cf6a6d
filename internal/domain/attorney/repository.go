package attorney

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Attorney entities.
type Repository interface {
	Create(ctx context.Context, a *Attorney) error
	GetByID(ctx context.Context, id int64) (*Attorney, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*Attorney, error)
	Update(ctx context.Context, a *Attorney) error // FirstName, LastName, Email, Phone, IsActive
	ListActive(ctx context.Context) ([]*Attorney, error)
	ListAll(ctx context.Context) ([]*Attorney, error) // For admin purposes
}
