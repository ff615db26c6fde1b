package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/evently-app/evently/internal/errdef"
)

// Store keeps uploaded files under flat keys.
type Store interface {
	Save(ctx context.Context, key string, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// NewFileSystem returns a [Store] keeping its files in dir. The directory is created if needed.
func NewFileSystem(dir string) (*FileSystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %q: %v", dir, err)
	}
	return &FileSystem{dir: dir}, nil
}

type FileSystem struct {
	dir string
}

// Save writes body to a temporary file first so readers never see a partially written file.
func (f *FileSystem) Save(_ context.Context, key string, _ string, body io.Reader) error {
	if err := validateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file for %q: %v", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %q: %v", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %q: %v", key, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, key)); err != nil {
		return fmt.Errorf("failed to store %q: %v", key, err)
	}
	return nil
}

func (f *FileSystem) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(f.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return errdef.NewNotFound("file %q not found", key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete %q: %v", key, err)
	}
	return nil
}

func (f *FileSystem) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	if err := validateKey(key); err != nil {
		return nil, "", err
	}

	file, err := os.Open(filepath.Join(f.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", errdef.NewNotFound("file %q not found", key)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %q: %v", key, err)
	}
	return file, mime.TypeByExtension(filepath.Ext(key)), nil
}

// validateKey rejects anything that is not a plain file name.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return errdef.NewBadRequest("invalid file name %q", key)
	}
	return nil
}
