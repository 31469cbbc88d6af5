package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/shutterspot/backend/internal/adapter"
	"github.com/shutterspot/backend/internal/adapter/memory"
	"github.com/shutterspot/backend/internal/handler"
	"github.com/shutterspot/backend/internal/model"
	"github.com/shutterspot/backend/internal/session"
	"github.com/shutterspot/backend/internal/store"
	syncengine "github.com/shutterspot/backend/internal/sync"
	"github.com/shutterspot/backend/internal/thumbnail"
)

const testUserID = "test-user-123"

func makeToken(userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(1 * time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte(testJWTSecret))
	return signed
}

func makeRequest(method, path, body string) events.APIGatewayProxyRequest {
	return makeRequestAs(testUserID, method, path, body)
}

func makeRequestAs(userID, method, path, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Body:       body,
		Headers: map[string]string{
			"Authorization": "Bearer " + makeToken(userID),
			"Content-Type":  "application/json",
		},
		PathParameters: map[string]string{},
	}
}

type testEnv struct {
	store    *store.MemoryStore
	provider *memory.Provider
	drive    *handler.DriveHandler
	photos   *handler.PhotoHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.NewMemoryStore()
	provider := memory.NewProvider()
	reconciler := syncengine.NewReconciler(st, provider, thumbnail.NewGenerator(), session.NewMemoryLocker(), log)

	return &testEnv{
		store:    st,
		provider: provider,
		drive:    handler.NewDriveHandler(provider, st, reconciler, testJWTSecret),
		photos:   handler.NewPhotoHandler(st, testJWTSecret),
	}
}

func (e *testEnv) seedGallery(t *testing.T, id string) {
	t.Helper()
	if err := e.store.PutGallery(context.Background(), &model.Gallery{ID: id, ClientID: "client-1", Title: "Gallery"}); err != nil {
		t.Fatalf("PutGallery: %v", err)
	}
}

func (e *testEnv) seedFolder(t *testing.T, userID, folderID, name string) {
	t.Helper()
	e.provider.Adapter(userID).AddFolder(adapter.RemoteFolder{ID: folderID, Name: name})
}

func (e *testEnv) seedImage(t *testing.T, userID, folderID, fileID string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	e.provider.Adapter(userID).AddImage(folderID, adapter.RemoteImage{
		ID:           fileID,
		Name:         fileID + ".png",
		MIMEType:     "image/png",
		ModifiedTime: "2026-05-01T10:00:00.000Z",
	}, buf.Bytes())
}

func TestDriveHandler_ListFolders(t *testing.T) {
	e := newTestEnv(t)
	e.seedFolder(t, testUserID, "folder-1", "Wedding Shoot")
	ctx := context.Background()

	resp, err := e.drive.ListFolders(ctx, makeRequest("GET", "/drive/folders", ""))
	if err != nil {
		t.Fatalf("ListFolders returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 OK, got %d: %s", resp.StatusCode, resp.Body)
	}

	var body struct {
		Folders []adapter.RemoteFolder `json:"folders"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(body.Folders) != 1 || body.Folders[0].Name != "Wedding Shoot" {
		t.Fatalf("Unexpected folders: %+v", body.Folders)
	}
}

func TestDriveHandler_ListFolders_NotAuthorized(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	// User exists in JWT terms but has never connected a Drive account.
	resp, _ := e.drive.ListFolders(ctx, makeRequest("GET", "/drive/folders", ""))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestDriveHandler_CreateConnection(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	e.seedFolder(t, testUserID, "folder-1", "Wedding Shoot")
	e.seedImage(t, testUserID, "folder-1", "file-a")
	ctx := context.Background()

	req := makeRequest("POST", "/drive/connections", `{"gallery_id":"gallery-1","drive_folder_id":"folder-1"}`)
	resp, err := e.drive.CreateConnection(ctx, req)
	if err != nil {
		t.Fatalf("CreateConnection returned error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, resp.Body)
	}

	var conn model.Connection
	if err := json.Unmarshal([]byte(resp.Body), &conn); err != nil {
		t.Fatalf("Failed to unmarshal connection: %v", err)
	}
	if conn.ID == "" {
		t.Error("Expected assigned connection ID")
	}
	// Folder name resolved from Drive at connect time.
	if conn.FolderName != "Wedding Shoot" {
		t.Errorf("FolderName = %s, want Wedding Shoot", conn.FolderName)
	}
	if !conn.AutoSync {
		t.Error("AutoSync should default to true")
	}
	// Auto-sync triggers an immediate pass.
	if conn.LastSyncedAt == nil {
		t.Error("Expected last_synced set by the initial sync pass")
	}
	photos, _ := e.store.ListPhotosByGallery(ctx, "gallery-1")
	if len(photos) != 1 {
		t.Fatalf("Expected 1 photo imported, got %d", len(photos))
	}
}

func TestDriveHandler_CreateConnection_NoAutoSync(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	e.seedFolder(t, testUserID, "folder-1", "Shoot")
	e.seedImage(t, testUserID, "folder-1", "file-a")
	ctx := context.Background()

	req := makeRequest("POST", "/drive/connections", `{"gallery_id":"gallery-1","drive_folder_id":"folder-1","auto_sync":false}`)
	resp, _ := e.drive.CreateConnection(ctx, req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, resp.Body)
	}

	var conn model.Connection
	json.Unmarshal([]byte(resp.Body), &conn)
	if conn.AutoSync {
		t.Error("AutoSync should be false")
	}
	if conn.LastSyncedAt != nil {
		t.Error("No initial pass should run with auto_sync=false")
	}
	photos, _ := e.store.ListPhotosByGallery(ctx, "gallery-1")
	if len(photos) != 0 {
		t.Fatalf("Expected no photos, got %d", len(photos))
	}
}

func TestDriveHandler_CreateConnection_UnknownGallery(t *testing.T) {
	e := newTestEnv(t)
	e.seedFolder(t, testUserID, "folder-1", "Shoot")
	ctx := context.Background()

	req := makeRequest("POST", "/drive/connections", `{"gallery_id":"no-such-gallery","drive_folder_id":"folder-1"}`)
	resp, _ := e.drive.CreateConnection(ctx, req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestDriveHandler_CreateConnection_UnknownFolder(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	e.seedFolder(t, testUserID, "folder-1", "Shoot")
	ctx := context.Background()

	req := makeRequest("POST", "/drive/connections", `{"gallery_id":"gallery-1","drive_folder_id":"no-such-folder"}`)
	resp, _ := e.drive.CreateConnection(ctx, req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestDriveHandler_CreateConnection_MissingFields(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	for _, body := range []string{`{}`, `{"gallery_id":"g"}`, `{"drive_folder_id":"f"}`, `not json`} {
		resp, _ := e.drive.CreateConnection(ctx, makeRequest("POST", "/drive/connections", body))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestDriveHandler_GetConnection_OwnerScoped(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	ctx := context.Background()

	conn := &model.Connection{UserID: testUserID, GalleryID: "gallery-1", FolderID: "folder-1"}
	e.store.CreateConnection(ctx, conn)

	req := makeRequest("GET", "/drive/connections/"+conn.ID, "")
	req.PathParameters["id"] = conn.ID
	resp, _ := e.drive.GetConnection(ctx, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	// Another user sees a 404, not a 403.
	otherReq := makeRequestAs("someone-else", "GET", "/drive/connections/"+conn.ID, "")
	otherReq.PathParameters["id"] = conn.ID
	resp, _ = e.drive.GetConnection(ctx, otherReq)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 for non-owner, got %d", resp.StatusCode)
	}
}

func TestDriveHandler_ListConnections(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	ctx := context.Background()

	e.store.CreateConnection(ctx, &model.Connection{UserID: testUserID, GalleryID: "gallery-1", FolderID: "f-1"})
	e.store.CreateConnection(ctx, &model.Connection{UserID: "someone-else", GalleryID: "gallery-1", FolderID: "f-2"})

	resp, _ := e.drive.ListConnections(ctx, makeRequest("GET", "/drive/connections", ""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var conns []model.Connection
	json.Unmarshal([]byte(resp.Body), &conns)
	if len(conns) != 1 {
		t.Fatalf("Expected only the caller's connection, got %d", len(conns))
	}
}

func TestDriveHandler_UpdateConnection_Partial(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	ctx := context.Background()

	conn := &model.Connection{UserID: testUserID, GalleryID: "gallery-1", FolderID: "f-1", AutoSync: true}
	e.store.CreateConnection(ctx, conn)

	req := makeRequest("PATCH", "/drive/connections/"+conn.ID, `{"auto_sync":false}`)
	req.PathParameters["id"] = conn.ID
	resp, _ := e.drive.UpdateConnection(ctx, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	got, _ := e.store.GetConnection(ctx, conn.ID)
	if got.AutoSync {
		t.Error("AutoSync should be false after partial update")
	}
	// Untouched fields keep their values.
	if got.FolderID != "f-1" {
		t.Errorf("FolderID = %s, want f-1", got.FolderID)
	}
}

func TestDriveHandler_DeleteConnection_KeepsPhotos(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	e.seedFolder(t, testUserID, "folder-1", "Shoot")
	e.seedImage(t, testUserID, "folder-1", "file-a")
	ctx := context.Background()

	createResp, _ := e.drive.CreateConnection(ctx, makeRequest("POST", "/drive/connections", `{"gallery_id":"gallery-1","drive_folder_id":"folder-1"}`))
	var conn model.Connection
	json.Unmarshal([]byte(createResp.Body), &conn)

	req := makeRequest("DELETE", "/drive/connections/"+conn.ID, "")
	req.PathParameters["id"] = conn.ID
	resp, _ := e.drive.DeleteConnection(ctx, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	// Deleting the binding does not delete imported photos.
	photos, _ := e.store.ListPhotosByGallery(ctx, "gallery-1")
	if len(photos) != 1 {
		t.Fatalf("Expected imported photo to survive, got %d", len(photos))
	}
}

func TestDriveHandler_SyncConnection(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	e.seedFolder(t, testUserID, "folder-1", "Shoot")
	e.seedImage(t, testUserID, "folder-1", "file-a")
	e.seedImage(t, testUserID, "folder-1", "file-b")
	ctx := context.Background()

	conn := &model.Connection{UserID: testUserID, GalleryID: "gallery-1", FolderID: "folder-1"}
	e.store.CreateConnection(ctx, conn)

	req := makeRequest("POST", "/drive/connections/"+conn.ID+"/sync", "")
	req.PathParameters["id"] = conn.ID
	resp, err := e.drive.SyncConnection(ctx, req)
	if err != nil {
		t.Fatalf("SyncConnection returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, resp.Body)
	}

	var body struct {
		Message     string `json:"message"`
		PhotosCount int    `json:"photos_count"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if body.PhotosCount != 2 {
		t.Errorf("photos_count = %d, want 2", body.PhotosCount)
	}
	if body.Message == "" {
		t.Error("Expected non-empty message")
	}
}

func TestDriveHandler_SyncConnection_TransferFailure(t *testing.T) {
	e := newTestEnv(t)
	e.seedGallery(t, "gallery-1")
	e.seedFolder(t, testUserID, "folder-1", "Shoot")
	e.seedImage(t, testUserID, "folder-1", "file-a")
	e.provider.Adapter(testUserID).SetDownloadError("file-a", adapter.ErrTransfer)
	ctx := context.Background()

	conn := &model.Connection{UserID: testUserID, GalleryID: "gallery-1", FolderID: "folder-1"}
	e.store.CreateConnection(ctx, conn)

	req := makeRequest("POST", "/drive/connections/"+conn.ID+"/sync", "")
	req.PathParameters["id"] = conn.ID
	resp, _ := e.drive.SyncConnection(ctx, req)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("Expected 502 for a transfer failure, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func TestDriveHandler_Unauthenticated(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	req := events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/drive/connections", Headers: map[string]string{}}
	resp, _ := e.drive.ListConnections(ctx, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", resp.StatusCode)
	}
}
