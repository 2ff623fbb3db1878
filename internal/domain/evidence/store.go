package evidence

import (
	"context"
	"errors"
	"io"
)

var ErrBlobNotFound = errors.New("evidence blob not found")

// Store keeps evidence bytes by key. Puts of the same key carry the same
// bytes, so repeating one is harmless.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
