// Package storage provides the attachment blob store. Filenames are
// sanitized and checked against a fixed extension allow-list before any
// bytes are written.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// BlobStore stores and retrieves ticket attachments by opaque key.
type BlobStore interface {
	Store(ctx context.Context, filename string, r io.Reader) (key string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

var allowedExtensions = map[string]struct{}{
	"pdf": {}, "png": {}, "jpg": {}, "jpeg": {},
	"doc": {}, "docx": {}, "xls": {}, "xlsx": {},
}

// AllowedExtension reports whether the filename carries an allow-listed
// extension.
func AllowedExtension(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	_, ok := allowedExtensions[ext]
	return ok
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFileName strips path components and unsafe characters, keeping the
// base name usable as a storage key segment.
func SanitizeFileName(filename string) string {
	// Strip both unix and windows style path components.
	filename = filepath.Base(filename)
	if idx := strings.LastIndexAny(filename, `\/`); idx >= 0 {
		filename = filename[idx+1:]
	}
	filename = unsafeChars.ReplaceAllString(filename, "_")
	filename = strings.Trim(filename, "._")
	return filename
}
