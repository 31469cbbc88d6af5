package session

import (
	"context"
	"sync"
	"time"

	"github.com/shutterspot/backend/internal/model"
)

// MemoryLocker implements Locker with an in-memory map, used in tests and
// DEV_MODE where a single process owns all sync passes.
type MemoryLocker struct {
	leases      map[string]*model.SyncLease
	mu          sync.Mutex
	ttlDuration time.Duration
}

// NewMemoryLocker creates a new MemoryLocker with the default TTL.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases:      make(map[string]*model.SyncLease),
		ttlDuration: DefaultTTL,
	}
}

func (m *MemoryLocker) Acquire(ctx context.Context, connectionID, owner string) (*model.SyncLease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().Unix()
	if existing, ok := m.leases[connectionID]; ok {
		if existing.ExpiresAt > now && existing.Owner != owner {
			return nil, ErrLeaseHeld
		}
	}

	lease := &model.SyncLease{
		ConnectionID: connectionID,
		Owner:        owner,
		ExpiresAt:    now + int64(m.ttlDuration.Seconds()),
	}
	m.leases[connectionID] = lease
	return lease, nil
}

func (m *MemoryLocker) Release(ctx context.Context, connectionID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leases[connectionID]
	if !ok || existing.Owner != owner {
		return nil
	}
	delete(m.leases, connectionID)
	return nil
}

func (m *MemoryLocker) Status(ctx context.Context, connectionID string) (*model.SyncLease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leases[connectionID]
	if !ok || existing.ExpiresAt < time.Now().Unix() {
		return nil, nil
	}
	return existing, nil
}
