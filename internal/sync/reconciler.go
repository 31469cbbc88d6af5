// Package sync reconciles remote Drive folders against gallery photo
// collections. Sync is one-directional and additive: remote images are
// imported and refreshed, never deleted locally.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shutterspot/backend/internal/adapter"
	"github.com/shutterspot/backend/internal/model"
	"github.com/shutterspot/backend/internal/session"
	"github.com/shutterspot/backend/internal/store"
	"github.com/shutterspot/backend/internal/thumbnail"
	"github.com/sirupsen/logrus"
)

// ErrSyncInProgress is returned when another pass holds the connection's lease.
var ErrSyncInProgress = session.ErrLeaseHeld

// Reconciler runs one sync pass per connection: enumerate the remote folder,
// diff against stored photos keyed by remote file id, and apply creates and
// stamp updates.
type Reconciler struct {
	store    store.Store
	provider adapter.StorageProvider
	thumbs   *thumbnail.Generator
	locks    session.Locker
	log      *logrus.Logger
}

// NewReconciler creates a Reconciler. All dependencies are injected; there is
// no ambient service instance.
func NewReconciler(st store.Store, provider adapter.StorageProvider, thumbs *thumbnail.Generator, locks session.Locker, log *logrus.Logger) *Reconciler {
	return &Reconciler{
		store:    st,
		provider: provider,
		thumbs:   thumbs,
		locks:    locks,
		log:      log,
	}
}

// Reconcile syncs one connection and returns the affected photos in remote
// enumeration order. Any error aborts the remaining work for the connection
// and leaves last_synced untouched; callers wanting partial progress retry
// per connection, not per image.
func (r *Reconciler) Reconcile(ctx context.Context, connectionID string) ([]model.Photo, error) {
	conn, err := r.store.GetConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	gallery, err := r.store.GetGallery(ctx, conn.GalleryID)
	if err != nil {
		return nil, err
	}

	// One pass per connection at a time. The lease covers both the manual
	// trigger racing the scheduler and two scheduler hosts overlapping.
	owner := uuid.NewString()
	if _, err := r.locks.Acquire(ctx, conn.ID, owner); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.locks.Release(context.WithoutCancel(ctx), conn.ID, owner); err != nil {
			r.log.WithError(err).WithField("connection_id", conn.ID).Warn("failed to release sync lease")
		}
	}()

	storage, err := r.provider.GetAdapter(ctx, conn.UserID)
	if err != nil {
		return nil, err
	}

	images, err := storage.ListImages(ctx, conn.FolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate folder %s: %w", conn.FolderID, err)
	}

	affected := []model.Photo{}
	created, updated := 0, 0
	for _, img := range images {
		existing, err := r.store.FindPhotoByGalleryAndRemoteID(ctx, gallery.ID, img.ID)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			thumb, err := r.thumbs.Generate(ctx, storage, img.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to generate thumbnail for %s: %w", img.ID, err)
			}

			photo := model.Photo{
				GalleryID:      gallery.ID,
				Filename:       img.Name,
				RemoteFileID:   img.ID,
				RemoteModified: img.ModifiedTime,
				Thumbnail:      thumb,
				URL:            img.ContentLink,
				FavoritesCount: 0,
			}
			if err := r.store.CreatePhoto(ctx, &photo); err != nil {
				return nil, err
			}
			affected = append(affected, photo)
			created++
			continue
		}

		if existing.RemoteModified != img.ModifiedTime {
			// Only the stamp advances; the stored thumbnail is kept rather
			// than re-downloaded.
			existing.RemoteModified = img.ModifiedTime
			if err := r.store.UpdatePhoto(ctx, existing); err != nil {
				return nil, err
			}
			affected = append(affected, *existing)
			updated++
		}
	}

	now := time.Now()
	conn.LastSyncedAt = &now
	if err := r.store.UpdateConnection(ctx, conn); err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"connection_id": conn.ID,
		"gallery_id":    gallery.ID,
		"remote_images": len(images),
		"created":       created,
		"updated":       updated,
	}).Info("sync pass completed")

	return affected, nil
}
