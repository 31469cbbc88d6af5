package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shutterspot/backend/internal/adapter"
	"github.com/shutterspot/backend/internal/model"
	"github.com/shutterspot/backend/internal/store"
	syncengine "github.com/shutterspot/backend/internal/sync"
)

// DriveHandler owns the Drive trigger surfaces: folder listing, connection
// CRUD, and the manual sync trigger.
type DriveHandler struct {
	storageProvider adapter.StorageProvider
	store           store.Store
	reconciler      *syncengine.Reconciler
	jwtSecret       string
}

// NewDriveHandler creates a new DriveHandler.
func NewDriveHandler(provider adapter.StorageProvider, st store.Store, reconciler *syncengine.Reconciler, jwtSecret string) *DriveHandler {
	return &DriveHandler{
		storageProvider: provider,
		store:           st,
		reconciler:      reconciler,
		jwtSecret:       jwtSecret,
	}
}

// ListFolders lists the folders in the caller's Drive, for picking a sync source.
func (h *DriveHandler) ListFolders(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	storage, err := h.storageProvider.GetAdapter(ctx, userID)
	if err != nil {
		return errorResponse(err), nil
	}

	folders, err := storage.ListFolders(ctx)
	if err != nil {
		fmt.Printf("ListFolders error: %v\n", err)
		return errorResponse(err), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{"folders": folders}), nil
}

// CreateConnection links a Drive folder to a gallery. The folder name is
// resolved at connect time; with auto-sync enabled an immediate sync pass runs
// before the response.
func (h *DriveHandler) CreateConnection(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	var payload struct {
		GalleryID string `json:"gallery_id"`
		FolderID  string `json:"drive_folder_id"`
		AutoSync  *bool  `json:"auto_sync"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}
	if payload.GalleryID == "" || payload.FolderID == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "gallery_id and drive_folder_id are required"}, nil
	}
	autoSync := true
	if payload.AutoSync != nil {
		autoSync = *payload.AutoSync
	}

	if _, err := h.store.GetGallery(ctx, payload.GalleryID); err != nil {
		return errorResponse(err), nil
	}

	storage, err := h.storageProvider.GetAdapter(ctx, userID)
	if err != nil {
		return errorResponse(err), nil
	}
	folder, err := storage.GetFolder(ctx, payload.FolderID)
	if err != nil {
		return errorResponse(err), nil
	}

	conn := model.Connection{
		UserID:     userID,
		GalleryID:  payload.GalleryID,
		FolderID:   folder.ID,
		FolderName: folder.Name,
		AutoSync:   autoSync,
	}
	if err := h.store.CreateConnection(ctx, &conn); err != nil {
		return errorResponse(err), nil
	}

	if autoSync {
		if _, err := h.reconciler.Reconcile(ctx, conn.ID); err != nil {
			// Connection is committed; the failed initial pass surfaces like a
			// manual sync failure.
			return errorResponse(err), nil
		}
	}

	// Re-read so the response carries last_synced from the initial pass.
	created, err := h.store.GetConnection(ctx, conn.ID)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(http.StatusCreated, created), nil
}

// ListConnections lists the caller's connections.
func (h *DriveHandler) ListConnections(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	conns, err := h.store.ListConnectionsByUser(ctx, userID)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(http.StatusOK, conns), nil
}

// getOwnedConnection loads a connection and hides it from non-owners.
func (h *DriveHandler) getOwnedConnection(ctx context.Context, req events.APIGatewayProxyRequest) (*model.Connection, *events.APIGatewayProxyResponse) {
	userID, err := GetUserID(req, h.jwtSecret)
	if err != nil {
		resp := events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}
		return nil, &resp
	}

	id := req.PathParameters["id"]
	if id == "" {
		resp := events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing connection ID"}
		return nil, &resp
	}

	conn, err := h.store.GetConnection(ctx, id)
	if err != nil {
		resp := errorResponse(err)
		return nil, &resp
	}
	// Connections are visible to their owner only; anyone else sees a 404
	// rather than a 403 to avoid leaking existence.
	if conn.UserID != userID {
		resp := jsonResponse(http.StatusNotFound, map[string]string{"detail": "Connection not found"})
		return nil, &resp
	}
	return conn, nil
}

// GetConnection returns one of the caller's connections.
func (h *DriveHandler) GetConnection(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	conn, errResp := h.getOwnedConnection(ctx, req)
	if errResp != nil {
		return *errResp, nil
	}
	return jsonResponse(http.StatusOK, conn), nil
}

// UpdateConnection applies a partial update to one of the caller's connections.
func (h *DriveHandler) UpdateConnection(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	conn, errResp := h.getOwnedConnection(ctx, req)
	if errResp != nil {
		return *errResp, nil
	}

	var payload struct {
		GalleryID  *string `json:"gallery_id"`
		FolderID   *string `json:"drive_folder_id"`
		FolderName *string `json:"drive_folder_name"`
		AutoSync   *bool   `json:"auto_sync"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Invalid request body"}, nil
	}

	if payload.GalleryID != nil {
		conn.GalleryID = *payload.GalleryID
	}
	if payload.FolderID != nil {
		conn.FolderID = *payload.FolderID
	}
	if payload.FolderName != nil {
		conn.FolderName = *payload.FolderName
	}
	if payload.AutoSync != nil {
		conn.AutoSync = *payload.AutoSync
	}

	if err := h.store.UpdateConnection(ctx, conn); err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(http.StatusOK, conn), nil
}

// DeleteConnection removes the binding. Photos already imported stay in the
// gallery.
func (h *DriveHandler) DeleteConnection(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	conn, errResp := h.getOwnedConnection(ctx, req)
	if errResp != nil {
		return *errResp, nil
	}

	if err := h.store.DeleteConnection(ctx, conn.ID); err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(http.StatusOK, map[string]string{"message": "Connection deleted successfully"}), nil
}

// SyncConnection manually triggers one sync pass and surfaces its outcome
// directly.
func (h *DriveHandler) SyncConnection(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	conn, errResp := h.getOwnedConnection(ctx, req)
	if errResp != nil {
		return *errResp, nil
	}

	photos, err := h.reconciler.Reconcile(ctx, conn.ID)
	if err != nil {
		fmt.Printf("Reconcile error for connection %s: %v\n", conn.ID, err)
		return errorResponse(err), nil
	}

	return jsonResponse(http.StatusOK, map[string]interface{}{
		"message":      fmt.Sprintf("Synchronized %d photos successfully", len(photos)),
		"photos_count": len(photos),
	}), nil
}
