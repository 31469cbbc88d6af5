package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shutterspot/backend/internal/adapter"
	"github.com/shutterspot/backend/internal/crypto"
	"github.com/shutterspot/backend/internal/model"
	"golang.org/x/oauth2"
)

// expirySlack is how close to expiry an access token may be before it is
// treated as expired and refreshed up front.
const expirySlack = 30 * time.Second

// CredentialStore persists per-user OAuth2 credentials. Implementations are
// swappable (DynamoDB row, secret manager, in-memory for tests).
type CredentialStore interface {
	// Get returns the stored credential for userID, or adapter.ErrAuthRequired
	// if none is on file.
	Get(ctx context.Context, userID string) (*model.UserCredential, error)

	// Put stores or replaces the credential for cred.UserID.
	Put(ctx context.Context, cred *model.UserCredential) error
}

// CredentialService hands out usable OAuth2 credentials for users. A stored
// credential whose access token has expired is refreshed transparently and the
// refreshed credential is persisted before use; if refresh fails the caller
// gets adapter.ErrAuthRequired.
type CredentialService struct {
	oauthConfig *oauth2.Config
	store       CredentialStore
	encryptor   crypto.Encryptor
}

// NewCredentialService creates a new CredentialService.
// The oauthConfig should be constructed by the caller (e.g., from environment
// variables and the secret resolver).
func NewCredentialService(oauthConfig *oauth2.Config, store CredentialStore, encryptor crypto.Encryptor) *CredentialService {
	return &CredentialService{
		oauthConfig: oauthConfig,
		store:       store,
		encryptor:   encryptor,
	}
}

// SaveToken encrypts the refresh token and persists the credential.
// This is the put side of the keyed credential store; the interactive
// authorization-code exchange that produces the first token lives outside
// this service.
func (s *CredentialService) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	if token.RefreshToken == "" {
		return fmt.Errorf("no refresh token in response")
	}

	encrypted, err := s.encryptor.Encrypt(ctx, token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	return s.store.Put(ctx, &model.UserCredential{
		UserID:                userID,
		EncryptedRefreshToken: encrypted,
		AccessToken:           token.AccessToken,
		Expiry:                token.Expiry,
		UpdatedAt:             time.Now(),
	})
}

// Credential returns a valid OAuth2 token for the user, refreshing and
// re-persisting it if the stored access token has expired.
func (s *CredentialService) Credential(ctx context.Context, userID string) (*oauth2.Token, error) {
	cred, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.encryptor.Decrypt(ctx, cred.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	if cred.AccessToken != "" && time.Until(cred.Expiry) > expirySlack {
		return &oauth2.Token{
			AccessToken:  cred.AccessToken,
			RefreshToken: refreshToken,
			Expiry:       cred.Expiry,
		}, nil
	}

	if refreshToken == "" {
		return nil, adapter.ErrAuthRequired
	}

	refreshed, err := s.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh failed: %v", adapter.ErrAuthRequired, err)
	}

	// Google only returns a refresh token on the first exchange; keep the
	// stored one when the refresh response omits it.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = refreshToken
	}
	if err := s.SaveToken(ctx, userID, refreshed); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed credential: %w", err)
	}

	return refreshed, nil
}

// Client returns an authenticated http.Client for the user.
func (s *CredentialService) Client(ctx context.Context, userID string) (*http.Client, error) {
	token, err := s.Credential(ctx, userID)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, s.oauthConfig.TokenSource(ctx, token)), nil
}
