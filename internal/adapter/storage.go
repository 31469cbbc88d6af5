package adapter

import (
	"context"
)

// RemoteFolder is a folder entry as reported by the storage provider.
type RemoteFolder struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatedTime  string `json:"createdTime,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// RemoteImage is one image entry from a folder enumeration. It is transient:
// the reconciler reads it, it is never persisted. The stamps are kept as the
// provider's own strings.
type RemoteImage struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MIMEType      string `json:"mimeType"`
	CreatedTime   string `json:"createdTime,omitempty"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
	ContentLink   string `json:"contentLink,omitempty"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
}

// StorageAdapter defines the read-only interface against the remote storage
// service. This abstraction allows switching between different providers
// (e.g., Google Drive, OneDrive) without changing the sync engine.
type StorageAdapter interface {
	// ListFolders lists folder-type entries visible to the user, excluding trashed.
	ListFolders(ctx context.Context) ([]RemoteFolder, error)

	// GetFolder retrieves a single folder's metadata by ID.
	// Returns ErrNotFound if the folder does not exist or is not accessible.
	GetFolder(ctx context.Context, folderID string) (*RemoteFolder, error)

	// ListImages lists image-type direct children of folderID, excluding trashed.
	ListImages(ctx context.Context, folderID string) ([]RemoteImage, error)

	// Download retrieves the full binary content of a remote file.
	// Returns ErrTransfer if the transfer ends before the reported size.
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// StorageProvider defines how to get a StorageAdapter for a specific user.
// Obtaining an adapter implies obtaining a usable credential, so this is the
// credential-provider boundary: ErrAuthRequired surfaces here.
type StorageProvider interface {
	GetAdapter(ctx context.Context, userID string) (StorageAdapter, error)
}
