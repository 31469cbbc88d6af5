package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shutterspot/backend/internal/model"
	"github.com/shutterspot/backend/internal/store"
	"github.com/shutterspot/backend/internal/thumbnail"
)

// PhotoHandler serves imported photos and the favorites counter.
type PhotoHandler struct {
	store     store.Store
	jwtSecret string
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(st store.Store, jwtSecret string) *PhotoHandler {
	return &PhotoHandler{store: st, jwtSecret: jwtSecret}
}

// photoView is the wire shape of a photo. Thumbnail bytes go out as a data
// URL so gallery pages can render them without a second request.
type photoView struct {
	model.Photo
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func toView(p model.Photo) photoView {
	v := photoView{Photo: p}
	if len(p.Thumbnail) > 0 {
		v.ThumbnailURL = thumbnail.DataURL(p.Thumbnail)
	}
	return v
}

// GetPhoto returns one photo with its inline thumbnail.
func (h *PhotoHandler) GetPhoto(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := GetUserID(req, h.jwtSecret); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	id := req.PathParameters["id"]
	if id == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing photo ID"}, nil
	}

	photo, err := h.store.GetPhoto(ctx, id)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(http.StatusOK, toView(*photo)), nil
}

// ListGalleryPhotos returns every photo in a gallery, thumbnails inlined.
func (h *PhotoHandler) ListGalleryPhotos(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, err := GetUserID(req, h.jwtSecret); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	galleryID := req.PathParameters["id"]
	if galleryID == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing gallery ID"}, nil
	}

	if _, err := h.store.GetGallery(ctx, galleryID); err != nil {
		return errorResponse(err), nil
	}

	photos, err := h.store.ListPhotosByGallery(ctx, galleryID)
	if err != nil {
		return errorResponse(err), nil
	}

	views := make([]photoView, 0, len(photos))
	for _, p := range photos {
		views = append(views, toView(p))
	}
	return jsonResponse(http.StatusOK, map[string]interface{}{"photos": views}), nil
}

// Favorite increments a photo's favorites counter.
func (h *PhotoHandler) Favorite(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.adjustFavorites(ctx, req, 1)
}

// Unfavorite decrements a photo's favorites counter. The counter never goes
// below zero.
func (h *PhotoHandler) Unfavorite(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.adjustFavorites(ctx, req, -1)
}

func (h *PhotoHandler) adjustFavorites(ctx context.Context, req events.APIGatewayProxyRequest, delta int) (events.APIGatewayProxyResponse, error) {
	if _, err := GetUserID(req, h.jwtSecret); err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusUnauthorized, Body: err.Error()}, nil
	}

	id := req.PathParameters["id"]
	if id == "" {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: "Missing photo ID"}, nil
	}

	photo, err := h.store.AdjustFavorites(ctx, id, delta)
	if err != nil {
		return errorResponse(err), nil
	}
	return jsonResponse(http.StatusOK, map[string]interface{}{
		"id":              photo.ID,
		"favorites_count": photo.FavoritesCount,
	}), nil
}
