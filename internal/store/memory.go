package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shutterspot/backend/internal/model"
)

// MemoryStore implements Store with in-memory maps, used in tests and DEV_MODE.
type MemoryStore struct {
	mu          sync.RWMutex
	connections map[string]model.Connection
	galleries   map[string]model.Gallery
	photos      map[string]model.Photo
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		connections: make(map[string]model.Connection),
		galleries:   make(map[string]model.Gallery),
		photos:      make(map[string]model.Photo),
	}
}

func (s *MemoryStore) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.connections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &conn, nil
}

func (s *MemoryStore) ListConnectionsByUser(ctx context.Context, userID string) ([]model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := []model.Connection{}
	for _, conn := range s.connections {
		if conn.UserID == userID {
			conns = append(conns, conn)
		}
	}
	return conns, nil
}

func (s *MemoryStore) CreateConnection(ctx context.Context, conn *model.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	s.connections[conn.ID] = *conn
	return nil
}

func (s *MemoryStore) UpdateConnection(ctx context.Context, conn *model.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connections[conn.ID]; !ok {
		return ErrNotFound
	}
	conn.UpdatedAt = time.Now()
	s.connections[conn.ID] = *conn
	return nil
}

func (s *MemoryStore) DeleteConnection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.connections[id]; !ok {
		return ErrNotFound
	}
	delete(s.connections, id)
	return nil
}

func (s *MemoryStore) ListEligibleForAutoSync(ctx context.Context, cutoff time.Time) ([]model.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := []model.Connection{}
	for _, conn := range s.connections {
		if !conn.AutoSync {
			continue
		}
		if conn.LastSyncedAt == nil || !conn.LastSyncedAt.After(cutoff) {
			conns = append(conns, conn)
		}
	}
	return conns, nil
}

func (s *MemoryStore) GetGallery(ctx context.Context, id string) (*model.Gallery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gallery, ok := s.galleries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &gallery, nil
}

func (s *MemoryStore) PutGallery(ctx context.Context, gallery *model.Gallery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gallery.ID == "" {
		gallery.ID = uuid.NewString()
	}
	gallery.UpdatedAt = time.Now()
	if gallery.CreatedAt.IsZero() {
		gallery.CreatedAt = gallery.UpdatedAt
	}
	s.galleries[gallery.ID] = *gallery
	return nil
}

func (s *MemoryStore) GetPhoto(ctx context.Context, id string) (*model.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photo, ok := s.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &photo, nil
}

func (s *MemoryStore) FindPhotoByGalleryAndRemoteID(ctx context.Context, galleryID, remoteFileID string) (*model.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByRemoteIDLocked(galleryID, remoteFileID), nil
}

func (s *MemoryStore) findByRemoteIDLocked(galleryID, remoteFileID string) *model.Photo {
	for _, photo := range s.photos {
		if photo.GalleryID == galleryID && photo.RemoteFileID == remoteFileID {
			p := photo
			return &p
		}
	}
	return nil
}

func (s *MemoryStore) ListPhotosByGallery(ctx context.Context, galleryID string) ([]model.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photos := []model.Photo{}
	for _, photo := range s.photos {
		if photo.GalleryID == galleryID {
			photos = append(photos, photo)
		}
	}
	return photos, nil
}

func (s *MemoryStore) CreatePhoto(ctx context.Context, photo *model.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if photo.RemoteFileID != "" && s.findByRemoteIDLocked(photo.GalleryID, photo.RemoteFileID) != nil {
		return ErrDuplicatePhoto
	}
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	now := time.Now()
	photo.CreatedAt = now
	photo.UpdatedAt = now
	s.photos[photo.ID] = *photo
	return nil
}

func (s *MemoryStore) UpdatePhoto(ctx context.Context, photo *model.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[photo.ID]; !ok {
		return ErrNotFound
	}
	photo.UpdatedAt = time.Now()
	s.photos[photo.ID] = *photo
	return nil
}

func (s *MemoryStore) AdjustFavorites(ctx context.Context, photoID string, delta int) (*model.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[photoID]
	if !ok {
		return nil, ErrNotFound
	}
	photo.FavoritesCount += delta
	if photo.FavoritesCount < 0 {
		photo.FavoritesCount = 0
	}
	photo.UpdatedAt = time.Now()
	s.photos[photoID] = photo
	return &photo, nil
}
