// Package thumbnail turns full-size remote images into small stored previews.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/shutterspot/backend/internal/adapter"

	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxSize bounds both thumbnail dimensions; aspect ratio is preserved.
	DefaultMaxSize = 300

	jpegQuality = 85
)

// Generator downloads a remote image and produces a downscaled copy.
// Generation is the expensive step of a sync pass (full download + decode +
// resize), which is why the reconciler avoids repeating it for unchanged files.
type Generator struct {
	maxWidth  int
	maxHeight int
}

// NewGenerator returns a Generator with the default 300x300 bound.
func NewGenerator() *Generator {
	return &Generator{maxWidth: DefaultMaxSize, maxHeight: DefaultMaxSize}
}

// NewGeneratorWithSize returns a Generator with a custom bounding box.
func NewGeneratorWithSize(maxWidth, maxHeight int) *Generator {
	return &Generator{maxWidth: maxWidth, maxHeight: maxHeight}
}

// Generate downloads fileID through the adapter, decodes it, and returns a
// scaled-down encoding no larger than the bounding box. The result is
// re-encoded in the source format when determinable (JPEG otherwise).
// Download failures surface as adapter.ErrTransfer, undecodable payloads as
// adapter.ErrDecode.
func (g *Generator) Generate(ctx context.Context, storage adapter.StorageAdapter, fileID string) ([]byte, error) {
	data, err := storage.Download(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return g.Render(data)
}

// Render decodes raw image bytes and produces the downscaled encoding.
func (g *Generator) Render(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", adapter.ErrDecode, err)
	}

	// Fit only downscales; images already within bounds pass through unchanged.
	thumb := imaging.Fit(img, g.maxWidth, g.maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, thumb)
	case "gif":
		err = gif.Encode(&buf, thumb, nil)
	default:
		// JPEG sources, and formats with no stdlib encoder (webp), come back
		// as JPEG.
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// DataURL wraps stored thumbnail bytes in an inline data URL. The API contract
// is a fixed still-image encoding, so the MIME type does not vary per photo.
func DataURL(thumb []byte) string {
	if len(thumb) == 0 {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(thumb)
}
