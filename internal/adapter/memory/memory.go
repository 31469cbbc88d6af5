// Package memory provides an in-memory StorageAdapter used in tests and
// DEV_MODE, standing in for the remote Drive service.
package memory

import (
	"context"
	"sync"

	"github.com/shutterspot/backend/internal/adapter"
)

// MemoryAdapter implements adapter.StorageAdapter over in-memory maps.
// Folders, images, and file contents are seeded by tests; error injection
// hooks simulate transfer failures.
type MemoryAdapter struct {
	mu           sync.RWMutex
	folders      map[string]adapter.RemoteFolder
	images       map[string][]adapter.RemoteImage
	contents     map[string][]byte
	downloadErrs map[string]error
}

// NewMemoryAdapter creates an empty MemoryAdapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		folders:      make(map[string]adapter.RemoteFolder),
		images:       make(map[string][]adapter.RemoteImage),
		contents:     make(map[string][]byte),
		downloadErrs: make(map[string]error),
	}
}

// AddFolder seeds a folder entry.
func (m *MemoryAdapter) AddFolder(folder adapter.RemoteFolder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[folder.ID] = folder
}

// AddImage seeds an image under folderID with its binary content.
func (m *MemoryAdapter) AddImage(folderID string, img adapter.RemoteImage, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[folderID] = append(m.images[folderID], img)
	m.contents[img.ID] = content
}

// SetImageStamp rewrites the modified stamp of a seeded image in place.
func (m *MemoryAdapter) SetImageStamp(folderID, fileID, stamp string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	imgs := m.images[folderID]
	for i := range imgs {
		if imgs[i].ID == fileID {
			imgs[i].ModifiedTime = stamp
		}
	}
}

// SetDownloadError makes Download fail for fileID with err.
func (m *MemoryAdapter) SetDownloadError(fileID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloadErrs[fileID] = err
}

func (m *MemoryAdapter) ListFolders(ctx context.Context) ([]adapter.RemoteFolder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	folders := []adapter.RemoteFolder{}
	for _, f := range m.folders {
		folders = append(folders, f)
	}
	return folders, nil
}

func (m *MemoryAdapter) GetFolder(ctx context.Context, folderID string) (*adapter.RemoteFolder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.folders[folderID]
	if !ok {
		return nil, adapter.ErrNotFound
	}
	return &f, nil
}

func (m *MemoryAdapter) ListImages(ctx context.Context, folderID string) ([]adapter.RemoteImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	imgs := make([]adapter.RemoteImage, len(m.images[folderID]))
	copy(imgs, m.images[folderID])
	return imgs, nil
}

func (m *MemoryAdapter) Download(ctx context.Context, fileID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.downloadErrs[fileID]; ok {
		return nil, err
	}
	content, ok := m.contents[fileID]
	if !ok {
		return nil, adapter.ErrNotFound
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}
