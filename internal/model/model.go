package model

import "time"

// UserCredential represents a user's OAuth2 credential stored in DynamoDB.
// The refresh token is encrypted at rest; the access token is short-lived
// and kept alongside so a still-valid credential can be reused without a
// refresh round-trip.
type UserCredential struct {
	UserID                string    `json:"user_id" dynamodbav:"user_id"`
	EncryptedRefreshToken string    `json:"encrypted_refresh_token" dynamodbav:"encrypted_refresh_token"`
	AccessToken           string    `json:"access_token" dynamodbav:"access_token"`
	Expiry                time.Time `json:"expiry" dynamodbav:"expiry"`
	UpdatedAt             time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Connection binds one user's remote Drive folder to one gallery.
type Connection struct {
	ID           string     `json:"id" dynamodbav:"id"`
	UserID       string     `json:"user_id" dynamodbav:"user_id"`
	GalleryID    string     `json:"gallery_id" dynamodbav:"gallery_id"`
	FolderID     string     `json:"drive_folder_id" dynamodbav:"drive_folder_id"`
	FolderName   string     `json:"drive_folder_name,omitempty" dynamodbav:"drive_folder_name"`
	AutoSync     bool       `json:"auto_sync" dynamodbav:"auto_sync"`
	LastSyncedAt *time.Time `json:"last_synced,omitempty" dynamodbav:"last_synced,omitempty"`
	CreatedAt    time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// Gallery is the sync target. Only the fields the sync subsystem and photo
// access checks need are carried here; full gallery CRUD lives elsewhere.
type Gallery struct {
	ID        string    `json:"id" dynamodbav:"id"`
	ClientID  string    `json:"client_id" dynamodbav:"client_id"`
	Title     string    `json:"title" dynamodbav:"title"`
	Status    string    `json:"status" dynamodbav:"status"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Photo is one imported image. RemoteFileID is empty for locally uploaded
// photos and is the reconciliation key for Drive-imported ones. RemoteModified
// is the provider's modified stamp kept as an opaque string; it is compared
// byte-wise, never parsed as a timestamp.
type Photo struct {
	ID             string    `json:"id" dynamodbav:"id"`
	GalleryID      string    `json:"gallery_id" dynamodbav:"gallery_id"`
	Filename       string    `json:"filename" dynamodbav:"filename"`
	RemoteFileID   string    `json:"drive_file_id,omitempty" dynamodbav:"drive_file_id"`
	RemoteModified string    `json:"drive_modified,omitempty" dynamodbav:"drive_modified"`
	Thumbnail      []byte    `json:"-" dynamodbav:"thumbnail"`
	URL            string    `json:"url,omitempty" dynamodbav:"url"`
	FavoritesCount int       `json:"favorites_count" dynamodbav:"favorites_count"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// SyncLease represents an in-progress sync pass on a connection.
// ExpiresAt is a Unix timestamp enforced via DynamoDB TTL so a crashed
// pass cannot wedge the connection forever.
type SyncLease struct {
	ConnectionID string `json:"connection_id" dynamodbav:"connection_id"`
	Owner        string `json:"owner" dynamodbav:"owner"`
	ExpiresAt    int64  `json:"expires_at" dynamodbav:"expires_at"`
}
