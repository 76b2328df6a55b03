package storage

import "context"

// BlobStore persists generated images and returns a public retrieval
// URL. Uploads are non-idempotent: a retried upload must use a fresh
// key rather than overwrite.
type BlobStore interface {
	Upload(ctx context.Context, key, mimeType string, data []byte) (string, error)
}
