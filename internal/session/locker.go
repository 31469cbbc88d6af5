package session

import (
	"context"
	"errors"

	"github.com/shutterspot/backend/internal/model"
)

// ErrLeaseHeld is returned when another sync pass holds the connection's lease.
var ErrLeaseHeld = errors.New("sync already in progress for connection")

// Locker grants per-connection sync leases so a manual trigger racing the
// scheduler cannot interleave writes to the same gallery's photos.
type Locker interface {
	// Acquire takes the lease for connectionID on behalf of owner. Succeeds if
	// no lease exists, the existing lease has expired, or owner already holds it.
	// Returns ErrLeaseHeld otherwise.
	Acquire(ctx context.Context, connectionID, owner string) (*model.SyncLease, error)

	// Release drops the lease if owner holds it.
	Release(ctx context.Context, connectionID, owner string) error

	// Status returns the active lease, or nil if none is held.
	Status(ctx context.Context, connectionID string) (*model.SyncLease, error)
}
