// Package storage archives uploaded statement files so a failed or disputed
// import can be replayed later.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("file not found")
	ErrUnsupportedBackend = errors.New("unsupported storage backend")
	ErrInvalidBatchID     = errors.New("invalid batch id")
)

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	BatchID     string    `json:"batch_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for file storage operations. Files are
// grouped by the import batch that received them.
type Storage interface {
	// Upload stores a file and returns its metadata
	Upload(ctx context.Context, batchID string, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Download retrieves a file by its ID
	Download(ctx context.Context, batchID string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, batchID string, fileID uuid.UUID) error

	// List returns all files of a batch
	List(ctx context.Context, batchID string) ([]*FileInfo, error)

	// GetInfo returns metadata for a file without downloading
	GetInfo(ctx context.Context, batchID string, fileID uuid.UUID) (*FileInfo, error)

	// Prune deletes files stored before cutoff and reports how many went
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Type)
	}
}
