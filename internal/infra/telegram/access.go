// internal/infra/telegram/access.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"deadline_tracker_bot/internal/domain/attorney"
	"deadline_tracker_bot/internal/domain/deadline"
	idb "deadline_tracker_bot/internal/infra/database"
)

var errNotRegistered = fmt.Errorf("sender is neither the admin nor an active attorney")

// requester is the resolved identity behind an incoming update.
type requester struct {
	isAdmin  bool
	attorney *attorney.Attorney // nil for an admin without an attorney record
}

func resolveRequester(ctx context.Context, repo attorney.Repository, adminTelegramID, senderID int64) (requester, error) {
	r := requester{isAdmin: senderID == adminTelegramID}

	a, err := repo.GetByTelegramID(ctx, senderID)
	switch {
	case err == nil && a.IsActive:
		r.attorney = a
	case err != nil && !errors.Is(err, idb.ErrAttorneyNotFound):
		return r, err
	}

	if !r.isAdmin && r.attorney == nil {
		return r, errNotRegistered
	}
	return r, nil
}

// ownerScope is the owner filter for listings: 0 (everything) for the admin.
func (r requester) ownerScope() int64 {
	if r.isAdmin || r.attorney == nil {
		return 0
	}
	return r.attorney.ID
}

// ownerID is the attorney id new deadlines are assigned to, 0 when unassigned.
func (r requester) ownerID() int64 {
	if r.attorney == nil {
		return 0
	}
	return r.attorney.ID
}

func (r requester) canTouch(d *deadline.Deadline) bool {
	if r.isAdmin {
		return true
	}
	return r.attorney != nil && d.OwnerID.Valid && d.OwnerID.Int64 == r.attorney.ID
}
