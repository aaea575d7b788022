// Package storage archives uploaded import spreadsheets per tenant.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an archived file does not exist
var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about an archived upload
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Checksum    string    `json:"checksum_sha256"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the interface for upload archive operations
type Storage interface {
	// Archive stores an upload and returns its metadata
	Archive(ctx context.Context, tenantID uuid.UUID, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Open retrieves an archived upload by its ID
	Open(ctx context.Context, tenantID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes an archived upload
	Delete(ctx context.Context, tenantID uuid.UUID, fileID uuid.UUID) error

	// List returns all archived uploads for a tenant, oldest first
	List(ctx context.Context, tenantID uuid.UUID) ([]*FileInfo, error)

	// GetInfo returns metadata for an upload without opening it
	GetInfo(ctx context.Context, tenantID uuid.UUID, fileID uuid.UUID) (*FileInfo, error)

	// Purge deletes every upload, across tenants, archived before cutoff
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// Config holds storage configuration
type Config struct {
	LocalPath     string
	RetentionDays int
}

// New creates the upload archive
func New(cfg *Config) (Storage, error) {
	return NewLocalStorage(cfg.LocalPath)
}
