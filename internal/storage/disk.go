package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/Im-Moazzam/Ticketing-System/pkg/util"
)

// DiskStore writes attachments to a local uploads directory.
type DiskStore struct {
	root string
}

// NewDiskStore ensures the uploads directory exists.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Store sanitizes and validates the filename, then writes the content under
// a uuid-prefixed key to avoid collisions between identically named uploads.
func (s *DiskStore) Store(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := SanitizeFileName(filename)
	if name == "" || !AllowedExtension(name) {
		return "", apperrors.NewInvalidAttachment(fmt.Sprintf("attachment type not allowed: %s", filename))
	}

	key := uuid.NewString()[:8] + "_" + name
	f, err := os.Create(filepath.Join(s.root, key))
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return key, nil
}

// Open returns the stored attachment. Keys containing path separators are
// rejected outright.
func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if key == "" || strings.ContainsAny(key, `\/`) {
		return nil, apperrors.NewNotFound("attachment", nil)
	}
	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFound("attachment", nil)
		}
		return nil, err
	}
	return f, nil
}
