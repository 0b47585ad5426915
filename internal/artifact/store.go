// Package artifact stores pipeline outputs. A published build is a bundle:
// a named collection of files keyed by addon name, ref, and commit SHA
// (e.g. "io_scene_psk_psa-main-3f1c2ab"). Backends exist for the local
// filesystem and S3-compatible object storage.
package artifact

import (
	"context"
	"io"
	"time"
)

// Store is the interface artifact backends implement. Files live inside a
// bundle and are identified by their relative key.
type Store interface {
	// Put stores a file under the given bundle. The reader is consumed in
	// full and a SHA-256 checksum is computed during storage.
	Put(ctx context.Context, bundle, key string, reader io.Reader) (Entry, error)

	// Get opens a stored file. The caller closes the returned ReadCloser.
	Get(ctx context.Context, bundle, key string) (io.ReadCloser, error)

	// List returns all entries in a bundle, sorted by key.
	List(ctx context.Context, bundle string) ([]Entry, error)

	// Delete removes a single entry from a bundle.
	Delete(ctx context.Context, bundle, key string) error
}

// Entry is the metadata of one stored file.
type Entry struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"` // SHA-256 hex digest
	CreatedAt time.Time `json:"created_at"`
}
