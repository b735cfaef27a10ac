// Package storage persists complaint attachments on local disk, S3 or
// Cloudinary behind a single interface.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrRemoteOnly is returned by Open when the backend serves files from
// their public URL instead of streaming them through the API.
var ErrRemoteOnly = errors.New("storage: object is served from its public url")

var ErrNotFound = errors.New("storage: object not found")

type Object struct {
	Key string
	URL string
}

type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// CleanKey rejects absolute paths and parent references in object keys.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "./") || strings.HasPrefix(clean, "../") {
		return "", errors.New("storage: invalid key")
	}
	return clean, nil
}
