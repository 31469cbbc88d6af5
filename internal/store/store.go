// Package store persists connections, galleries, and photos. It carries no
// business logic beyond persistence and the (gallery, remote file id)
// uniqueness invariant.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shutterspot/backend/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicatePhoto is returned when a create would give two photos in one
	// gallery the same remote file id.
	ErrDuplicatePhoto = errors.New("photo with this remote file id already exists in gallery")
)

// Store is the persistence boundary for the sync subsystem.
type Store interface {
	// GetConnection returns the connection or ErrNotFound.
	GetConnection(ctx context.Context, id string) (*model.Connection, error)

	// ListConnectionsByUser returns all connections owned by userID.
	ListConnectionsByUser(ctx context.Context, userID string) ([]model.Connection, error)

	// CreateConnection stores a new connection, assigning an ID if empty.
	CreateConnection(ctx context.Context, conn *model.Connection) error

	// UpdateConnection replaces the stored connection.
	UpdateConnection(ctx context.Context, conn *model.Connection) error

	// DeleteConnection removes the binding only; imported photos stay.
	DeleteConnection(ctx context.Context, id string) error

	// ListEligibleForAutoSync returns connections with auto-sync enabled that
	// were never synced or whose last sync is at or before cutoff.
	ListEligibleForAutoSync(ctx context.Context, cutoff time.Time) ([]model.Connection, error)

	// GetGallery returns the gallery or ErrNotFound.
	GetGallery(ctx context.Context, id string) (*model.Gallery, error)

	// PutGallery stores or replaces a gallery record.
	PutGallery(ctx context.Context, gallery *model.Gallery) error

	// GetPhoto returns the photo or ErrNotFound.
	GetPhoto(ctx context.Context, id string) (*model.Photo, error)

	// FindPhotoByGalleryAndRemoteID is the identity-key lookup used by
	// reconciliation. Returns (nil, nil) when no photo matches.
	FindPhotoByGalleryAndRemoteID(ctx context.Context, galleryID, remoteFileID string) (*model.Photo, error)

	// ListPhotosByGallery returns all photos in a gallery.
	ListPhotosByGallery(ctx context.Context, galleryID string) ([]model.Photo, error)

	// CreatePhoto stores a new photo, assigning an ID if empty. Returns
	// ErrDuplicatePhoto when the (gallery, remote file id) pair is taken.
	CreatePhoto(ctx context.Context, photo *model.Photo) error

	// UpdatePhoto replaces the stored photo.
	UpdatePhoto(ctx context.Context, photo *model.Photo) error

	// AdjustFavorites changes a photo's favorites counter by delta, clamping
	// the result at zero, and returns the updated photo.
	AdjustFavorites(ctx context.Context, photoID string, delta int) (*model.Photo, error)
}
