// Package image validates uploaded event images, stores them under generated names and serves them
// back under /static/uploads.
package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PathPrefix is the URL path uploaded images are served under.
const PathPrefix = "/static/uploads/"

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

func NewService(logger *slog.Logger, store store, maxSize int64) *Service {
	return &Service{
		logger:  logger,
		store:   store,
		maxSize: maxSize,
	}
}

type store interface {
	Save(ctx context.Context, key string, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type Service struct {
	logger  *slog.Logger
	store   store
	maxSize int64
}

// Upload is an image that passed validation but is not stored yet.
type Upload struct {
	file        *multipart.FileHeader
	Key         string
	ContentType string
}

// Validate checks the size and the sniffed content type of file without storing anything.
func (s Service) Validate(file *multipart.FileHeader) (*Upload, error) {
	if file.Size > s.maxSize {
		return nil, errdef.NewInvalidUpload("Image file is too large (Max %s).", formatSize(s.maxSize))
	}
	if file.Size == 0 {
		return nil, errdef.NewInvalidUpload("Image file is empty.")
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %q: %v", file.Filename, err)
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to detect type of upload %q: %v", file.Filename, err)
	}

	if !isAllowed(mtype) {
		return nil, errdef.NewInvalidUpload("Unsupported image type %q. Allowed types are JPEG, PNG and WEBP.", mtype.String())
	}

	return &Upload{
		file:        file,
		Key:         uuid.NewString() + mtype.Extension(),
		ContentType: mtype.String(),
	}, nil
}

func isAllowed(mtype *mimetype.MIME) bool {
	for _, t := range allowedTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}

// Store writes a validated upload and returns its public URL, rooted at baseURL.
func (s Service) Store(ctx context.Context, upload *Upload, baseURL string) (string, error) {
	f, err := upload.file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %q: %v", upload.file.Filename, err)
	}
	defer f.Close()

	if err := s.store.Save(ctx, upload.Key, upload.ContentType, f); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Image stored", "key", upload.Key, "contentType", upload.ContentType, "size", upload.file.Size)
	return strings.TrimSuffix(baseURL, "/") + PathPrefix + upload.Key, nil
}

// Remove deletes the image behind imageURL. Failures are logged and otherwise ignored as an orphaned
// file must never fail the operation that replaced it.
func (s Service) Remove(ctx context.Context, imageURL string) {
	key, ok := KeyFromURL(imageURL)
	if !ok {
		s.logger.WarnContext(ctx, "Not an uploaded image", "url", imageURL)
		return
	}

	err := s.store.Delete(ctx, key)
	if errdef.IsNotFound(err) {
		s.logger.InfoContext(ctx, "Image already gone", "key", key)
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete image", "key", key, "error", err)
		return
	}

	s.logger.InfoContext(ctx, "Image deleted", "key", key)
}

// Open returns the stored image and its content type. The caller must close it.
func (s Service) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.store.Open(ctx, key)
}

// KeyFromURL extracts the storage key from a public image URL.
func KeyFromURL(imageURL string) (string, bool) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", false
	}

	i := strings.LastIndex(u.Path, PathPrefix)
	if i < 0 {
		return "", false
	}

	key := u.Path[i+len(PathPrefix):]
	if key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

func formatSize(size int64) string {
	if size >= 1<<20 && size%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", size>>20)
	}
	return fmt.Sprintf("%d bytes", size)
}
