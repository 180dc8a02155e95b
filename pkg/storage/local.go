package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaDirName = ".meta"

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("storage path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Upload stores a file and returns its metadata
func (s *LocalStorage) Upload(ctx context.Context, batchID string, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fileID := uuid.New()

	batchDir, err := s.batchDir(batchID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	// Short id prefix keeps two uploads with the same name apart
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filepath.Base(filename)))
	filePath := filepath.Join(batchDir, storedFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		BatchID:     batchID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Path:        storedFilename,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.saveMetadata(batchDir, info); err != nil {
		_ = os.Remove(filePath)
		return nil, err
	}

	return info, nil
}

// Download retrieves a file by its ID
func (s *LocalStorage) Download(ctx context.Context, batchID string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, batchID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, batchID, info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes a file by its ID
func (s *LocalStorage) Delete(ctx context.Context, batchID string, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, batchID, fileID)
	if err != nil {
		return err
	}
	return s.remove(info)
}

// List returns all files of a batch, oldest first
func (s *LocalStorage) List(ctx context.Context, batchID string) ([]*FileInfo, error) {
	batchDir, err := s.batchDir(batchID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(batchDir, metaDirName))
	if errors.Is(err, os.ErrNotExist) {
		return []*FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		info, err := s.GetInfo(ctx, batchID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	slices.SortStableFunc(files, func(a, b *FileInfo) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return files, nil
}

// GetInfo returns metadata for a file without downloading
func (s *LocalStorage) GetInfo(ctx context.Context, batchID string, fileID uuid.UUID) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batchDir, err := s.batchDir(batchID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(batchDir, metaDirName, fileID.String()+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return &info, nil
}

// Prune deletes every file stored before cutoff. Only directories named
// like a batch id are visited; anything else under the base path is left
// alone. A batch directory is removed once it holds nothing else.
func (s *LocalStorage) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	batches, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list batches: %w", err)
	}

	pruned := 0
	for _, batch := range batches {
		if !batch.IsDir() {
			continue
		}
		if !isBatchID(batch.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return pruned, err
		}

		files, err := s.List(ctx, batch.Name())
		if err != nil {
			return pruned, err
		}
		if len(files) == 0 {
			// nothing recorded yet, possibly an upload in flight
			continue
		}

		removed := 0
		for _, info := range files {
			if !info.CreatedAt.Before(cutoff) {
				continue
			}
			if err := s.remove(info); err != nil {
				return pruned, err
			}
			removed++
		}
		pruned += removed

		if removed == len(files) {
			s.removeIfEmpty(filepath.Join(s.basePath, batch.Name()))
		}
	}

	return pruned, nil
}

// removeIfEmpty drops the metadata directory and then the batch directory.
// os.Remove refuses non-empty directories, so files written meanwhile stay.
func (s *LocalStorage) removeIfEmpty(batchDir string) {
	_ = os.Remove(filepath.Join(batchDir, metaDirName))
	_ = os.Remove(batchDir)
}

func (s *LocalStorage) remove(info *FileInfo) error {
	batchDir := filepath.Join(s.basePath, info.BatchID)
	if err := os.Remove(filepath.Join(batchDir, info.Path)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	metaPath := filepath.Join(batchDir, metaDirName, info.ID.String()+".json")
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

// batchDir resolves the directory of a batch. Batch ids are UUIDs, which
// also keeps them from escaping the base path.
func (s *LocalStorage) batchDir(batchID string) (string, error) {
	if !isBatchID(batchID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidBatchID, batchID)
	}
	return filepath.Join(s.basePath, batchID), nil
}

// isBatchID accepts canonical lowercase UUIDs only
func isBatchID(name string) bool {
	id, err := uuid.Parse(name)
	return err == nil && id.String() == name
}

// saveMetadata saves file metadata to a JSON file
func (s *LocalStorage) saveMetadata(batchDir string, info *FileInfo) error {
	metaDir := filepath.Join(batchDir, metaDirName)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(metaDir, info.ID.String()+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
