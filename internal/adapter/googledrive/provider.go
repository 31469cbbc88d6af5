package googledrive

import (
	"context"
	"fmt"

	"github.com/shutterspot/backend/internal/adapter"
	"github.com/shutterspot/backend/internal/auth"
)

// Provider implements adapter.StorageProvider for Google Drive.
type Provider struct {
	credentials *auth.CredentialService
}

// NewProvider creates a new Google Drive provider.
func NewProvider(credentials *auth.CredentialService) *Provider {
	return &Provider{credentials: credentials}
}

// GetAdapter returns a DriveAdapter authenticated as the given user.
// ErrAuthRequired propagates unchanged so callers can distinguish a missing
// credential from a transport failure.
func (p *Provider) GetAdapter(ctx context.Context, userID string) (adapter.StorageAdapter, error) {
	client, err := p.credentials.Client(ctx, userID)
	if err != nil {
		return nil, err
	}

	storage, err := NewDriveAdapter(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive adapter: %w", err)
	}

	return storage, nil
}
