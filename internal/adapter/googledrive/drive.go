package googledrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shutterspot/backend/internal/adapter"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	folderMIMEType = "application/vnd.google-apps.folder"

	// Downloads are full-size originals; one minute covers anything a studio
	// realistically keeps in a shoot folder.
	defaultDownloadTimeout = 1 * time.Minute

	downloadChunkSize = 256 * 1024
)

// Per-user Drive API quota is 12000 queries/minute; staying well under it
// keeps batch syncs from tripping rate-limit errors mid-pass.
var apiLimit = rate.Limit(10)

// escapeQueryTerm escapes single quotes for interpolation into a Drive
// search query.
func escapeQueryTerm(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}

// DriveAdapter implements adapter.StorageAdapter for Google Drive.
type DriveAdapter struct {
	service         *drive.Service
	limiter         *rate.Limiter
	downloadTimeout time.Duration
}

// NewDriveAdapter creates a new DriveAdapter.
// client should be an authenticated http.Client carrying the user's credential.
func NewDriveAdapter(ctx context.Context, client *http.Client) (*DriveAdapter, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %v", err)
	}
	return &DriveAdapter{
		service:         srv,
		limiter:         rate.NewLimiter(apiLimit, 5),
		downloadTimeout: defaultDownloadTimeout,
	}, nil
}

// ListFolders lists folder-type entries visible to the user, excluding trashed.
func (d *DriveAdapter) ListFolders(ctx context.Context) ([]adapter.RemoteFolder, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("mimeType = '%s' and trashed = false", folderMIMEType)
	r, err := d.service.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, createdTime, modifiedTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list folders: %w", err)
	}

	folders := []adapter.RemoteFolder{}
	for _, f := range r.Files {
		folders = append(folders, adapter.RemoteFolder{
			ID:           f.Id,
			Name:         f.Name,
			CreatedTime:  f.CreatedTime,
			ModifiedTime: f.ModifiedTime,
		})
	}
	return folders, nil
}

// GetFolder retrieves a single folder's metadata by ID.
func (d *DriveAdapter) GetFolder(ctx context.Context, folderID string) (*adapter.RemoteFolder, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	f, err := d.service.Files.Get(folderID).
		SupportsAllDrives(true).
		Fields("id, name, mimeType, createdTime, modifiedTime").
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, adapter.ErrNotFound
		}
		return nil, fmt.Errorf("unable to get folder metadata: %w", err)
	}
	if f.MimeType != folderMIMEType {
		return nil, adapter.ErrNotFound
	}

	return &adapter.RemoteFolder{
		ID:           f.Id,
		Name:         f.Name,
		CreatedTime:  f.CreatedTime,
		ModifiedTime: f.ModifiedTime,
	}, nil
}

// ListImages lists image-type direct children of folderID, excluding trashed.
func (d *DriveAdapter) ListImages(ctx context.Context, folderID string) ([]adapter.RemoteImage, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("'%s' in parents and mimeType contains 'image/' and trashed = false", escapeQueryTerm(folderID))
	r, err := d.service.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, mimeType, createdTime, modifiedTime, webContentLink, thumbnailLink)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list images: %w", err)
	}

	images := []adapter.RemoteImage{}
	for _, f := range r.Files {
		images = append(images, adapter.RemoteImage{
			ID:            f.Id,
			Name:          f.Name,
			MIMEType:      f.MimeType,
			CreatedTime:   f.CreatedTime,
			ModifiedTime:  f.ModifiedTime,
			ContentLink:   f.WebContentLink,
			ThumbnailLink: f.ThumbnailLink,
		})
	}
	return images, nil
}

// Download retrieves the full binary content of a remote file. The body is
// accumulated in fixed-size chunks and checked against the reported length,
// so a connection dropped mid-transfer surfaces as ErrTransfer instead of a
// silently truncated image.
func (d *DriveAdapter) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.downloadTimeout)
	defer cancel()

	resp, err := d.service.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, adapter.ErrNotFound
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", adapter.ErrTransfer, ctx.Err())
		}
		return nil, fmt.Errorf("unable to download file: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	chunk := make([]byte, downloadChunkSize)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", adapter.ErrTransfer, err)
		}
	}

	if resp.ContentLength >= 0 && int64(buf.Len()) != resp.ContentLength {
		return nil, fmt.Errorf("%w: got %d of %d bytes", adapter.ErrTransfer, buf.Len(), resp.ContentLength)
	}

	return buf.Bytes(), nil
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 404
	}
	return false
}
