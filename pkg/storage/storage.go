// Package storage provides the object-storage gateway used for message
// attachments. The relational database is the single source of truth for
// what exists; storage is treated as write-once, best-effort-delete, and
// may transiently hold objects that no database row references.
package storage

import (
	"context"
	"io"
	"time"
)

// Gateway is the capability surface the messaging core consumes.
type Gateway interface {
	// Upload stores body under key and returns the durable storage path.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)

	// SignedURL returns a time-boxed access URL for a stored path.
	// Implementations without a signing capability return the raw path.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Delete removes a stored object. Deleting a missing object is not an
	// error; callers use Delete for best-effort compensation sweeps.
	Delete(ctx context.Context, path string) error
}
