package memory

import (
	"context"
	"sync"

	"github.com/shutterspot/backend/internal/adapter"
)

// Provider implements adapter.StorageProvider with one MemoryAdapter per user.
// Users without a seeded adapter get ErrAuthRequired, mirroring the behavior
// of the credential-backed Drive provider.
type Provider struct {
	mu       sync.Mutex
	adapters map[string]*MemoryAdapter
}

// NewProvider creates an empty Provider.
func NewProvider() *Provider {
	return &Provider{adapters: make(map[string]*MemoryAdapter)}
}

// Adapter returns the adapter seeded for userID, creating it on first use.
func (p *Provider) Adapter(userID string) *MemoryAdapter {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.adapters[userID]
	if !ok {
		a = NewMemoryAdapter()
		p.adapters[userID] = a
	}
	return a
}

// GetAdapter returns the user's adapter or ErrAuthRequired when the user was
// never seeded.
func (p *Provider) GetAdapter(ctx context.Context, userID string) (adapter.StorageAdapter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.adapters[userID]
	if !ok {
		return nil, adapter.ErrAuthRequired
	}
	return a, nil
}
