// Package blob abstracts the external key/byte object store behind the
// storage tree. The store has no native folder concept; keys mirror the
// folder path hierarchy rooted at a per-owner prefix.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("blob not found")

// Store is the object-store contract required by the storage tree and the
// document session manager. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns a reader over the full object. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// GetRange returns a reader over bytes [start, end] inclusive.
	// Requests past the end of the object yield io.EOF on read or
	// ErrNotFound-style failures depending on backend.
	GetRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)

	// Put writes the object, overwriting any existing content at key.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteBatch removes many objects, chunking as the backend requires.
	// Per-key failures are reported in the returned map; a nil map means
	// everything succeeded.
	DeleteBatch(ctx context.Context, keys []string) (map[string]error, error)

	// ListPrefix returns every key under the given prefix.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// Size returns the object size in bytes.
	Size(ctx context.Context, key string) (int64, error)

	// PresignGet issues a time-limited capability URL for downloading the
	// object without credentials.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}
