// Package storage provides scratch-file staging and output publication.
// It defines the Storage interface (port) for hexagonal architecture and
// implementations for local disk and S3-backed publication.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for staging scratch files during a
// request and publishing finished artifacts in link-response mode.
type Storage interface {
	// SaveScratch writes data to a scratch file and returns its path.
	// The name parameter is used as a prefix hint for the filename.
	SaveScratch(ctx context.Context, name string, data io.Reader) (path string, err error)

	// CleanupScratch removes the specified scratch files.
	// It continues cleanup even if some files fail to delete.
	CleanupScratch(ctx context.Context, paths []string) error

	// Publish persists an artifact under the given name and returns a
	// URL where it can be fetched. Only used in link-response mode.
	Publish(ctx context.Context, name string, data io.Reader) (url string, err error)
}
