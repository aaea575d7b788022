package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// Archive stores an upload and returns its metadata
func (s *LocalStorage) Archive(ctx context.Context, tenantID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fileID := uuid.New()

	tenantDir := filepath.Join(s.basePath, tenantID.String())
	if err := os.MkdirAll(tenantDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tenant directory: %w", err)
	}

	// UUID prefix keeps repeated uploads of the same file apart
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	filePath := filepath.Join(tenantDir, storedFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, hash), r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		TenantID:    tenantID,
		Name:        filename,
		Size:        size,
		ContentType: contentType,
		Checksum:    hex.EncodeToString(hash.Sum(nil)),
		Path:        storedFilename,
		CreatedAt:   s.now(),
	}

	if err := s.saveMetadata(tenantID, fileID, info); err != nil {
		os.Remove(filePath)
		return nil, err
	}

	return info, nil
}

// Open retrieves an archived upload by its ID
func (s *LocalStorage) Open(ctx context.Context, tenantID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.GetInfo(ctx, tenantID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, tenantID.String(), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, info, nil
}

// Delete removes an archived upload
func (s *LocalStorage) Delete(ctx context.Context, tenantID uuid.UUID, fileID uuid.UUID) error {
	info, err := s.GetInfo(ctx, tenantID, fileID)
	if err != nil {
		return err
	}

	filePath := filepath.Join(s.basePath, tenantID.String(), info.Path)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	if err := os.Remove(s.metaPath(tenantID, fileID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

// List returns all archived uploads for a tenant, oldest first
func (s *LocalStorage) List(ctx context.Context, tenantID uuid.UUID) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.basePath, tenantID.String(), ".meta")
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*FileInfo{}, nil
		}
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

		info, err := s.GetInfo(ctx, tenantID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.Before(files[j].CreatedAt) })
	return files, nil
}

// GetInfo returns metadata for an upload without opening it
func (s *LocalStorage) GetInfo(_ context.Context, tenantID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	data, err := os.ReadFile(s.metaPath(tenantID, fileID))
	if err != nil {
		if os.IsNotExist(err) {
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

// Purge deletes every upload archived before cutoff. It stops early when ctx is done.
func (s *LocalStorage) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	tenants, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to list tenants: %w", err)
	}

	purged := 0
	var errs []error
	for _, dir := range tenants {
		tenantID, err := uuid.Parse(dir.Name())
		if !dir.IsDir() || err != nil {
			continue
		}

		files, err := s.List(ctx, tenantID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, info := range files {
			if err := ctx.Err(); err != nil {
				return purged, err
			}
			if !info.CreatedAt.Before(cutoff) {
				break
			}
			if err := s.Delete(ctx, tenantID, info.ID); err != nil {
				errs = append(errs, err)
				continue
			}
			purged++
		}
	}

	return purged, errors.Join(errs...)
}

func (s *LocalStorage) metaPath(tenantID, fileID uuid.UUID) string {
	return filepath.Join(s.basePath, tenantID.String(), ".meta", fileID.String()+".json")
}

// saveMetadata saves file metadata to a JSON file
func (s *LocalStorage) saveMetadata(tenantID, fileID uuid.UUID, info *FileInfo) error {
	metaDir := filepath.Join(s.basePath, tenantID.String(), ".meta")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(s.metaPath(tenantID, fileID), data, 0644); err != nil {
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
