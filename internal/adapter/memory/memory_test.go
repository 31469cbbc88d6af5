package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shutterspot/backend/internal/adapter"
)

func TestMemoryAdapter_Folders(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	folders, err := m.ListFolders(ctx)
	if err != nil {
		t.Fatalf("ListFolders: %v", err)
	}
	if len(folders) != 0 {
		t.Fatalf("Expected no folders, got %d", len(folders))
	}

	m.AddFolder(adapter.RemoteFolder{ID: "f1", Name: "Shoot A"})
	m.AddFolder(adapter.RemoteFolder{ID: "f2", Name: "Shoot B"})

	folders, _ = m.ListFolders(ctx)
	if len(folders) != 2 {
		t.Fatalf("Expected 2 folders, got %d", len(folders))
	}

	f, err := m.GetFolder(ctx, "f1")
	if err != nil {
		t.Fatalf("GetFolder: %v", err)
	}
	if f.Name != "Shoot A" {
		t.Errorf("Name = %s, want Shoot A", f.Name)
	}

	if _, err := m.GetFolder(ctx, "missing"); !errors.Is(err, adapter.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAdapter_ImagesAndDownload(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	m.AddFolder(adapter.RemoteFolder{ID: "f1", Name: "Shoot"})
	m.AddImage("f1", adapter.RemoteImage{ID: "img-1", Name: "a.png", ModifiedTime: "stamp-1"}, []byte("content-1"))
	m.AddImage("f1", adapter.RemoteImage{ID: "img-2", Name: "b.png", ModifiedTime: "stamp-2"}, []byte("content-2"))

	imgs, err := m.ListImages(ctx, "f1")
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(imgs) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(imgs))
	}

	imgs, _ = m.ListImages(ctx, "empty-folder")
	if len(imgs) != 0 {
		t.Fatalf("Expected no images for unknown folder, got %d", len(imgs))
	}

	data, err := m.Download(ctx, "img-1")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "content-1" {
		t.Errorf("Download content = %q", data)
	}

	if _, err := m.Download(ctx, "missing"); !errors.Is(err, adapter.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryAdapter_SetImageStamp(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	m.AddImage("f1", adapter.RemoteImage{ID: "img-1", Name: "a.png", ModifiedTime: "old"}, nil)
	m.SetImageStamp("f1", "img-1", "new")

	imgs, _ := m.ListImages(ctx, "f1")
	if imgs[0].ModifiedTime != "new" {
		t.Errorf("ModifiedTime = %s, want new", imgs[0].ModifiedTime)
	}
}

func TestMemoryAdapter_DownloadErrorInjection(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	m.AddImage("f1", adapter.RemoteImage{ID: "img-1", Name: "a.png"}, []byte("data"))
	m.SetDownloadError("img-1", adapter.ErrTransfer)

	if _, err := m.Download(ctx, "img-1"); !errors.Is(err, adapter.ErrTransfer) {
		t.Fatalf("Expected injected ErrTransfer, got %v", err)
	}
}

func TestProvider_GetAdapter(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	if _, err := p.GetAdapter(ctx, "unseeded"); !errors.Is(err, adapter.ErrAuthRequired) {
		t.Fatalf("Expected ErrAuthRequired for unseeded user, got %v", err)
	}

	p.Adapter("user-1").AddFolder(adapter.RemoteFolder{ID: "f1", Name: "Shoot"})
	a, err := p.GetAdapter(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetAdapter: %v", err)
	}
	folders, _ := a.ListFolders(ctx)
	if len(folders) != 1 {
		t.Fatalf("Expected seeded folder visible, got %d", len(folders))
	}
}
