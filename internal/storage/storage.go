// Package storage keeps exported scan reports on the local filesystem or in
// Tencent Cloud COS.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/memscope/internal/report"
	"github.com/memscope/pkg/compression"
	"github.com/memscope/pkg/config"
	apperrors "github.com/memscope/pkg/errors"
	"github.com/memscope/pkg/model"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload stores the contents of reader at key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile stores a local file at key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the object at key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where the object at key can be fetched from.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates a Storage from configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	case StorageTypeLocal, "":
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
	return nil
}

// ReportKey returns the object key of a run's report under prefix.
func ReportKey(prefix, runID string, t compression.Type) string {
	return path.Join(prefix, runID+".json"+t.Extension())
}

// UploadReport encodes r with the given compression and stores it under
// prefix. It returns the object key.
func UploadReport(ctx context.Context, store Storage, prefix string, r *model.ScanReport, t compression.Type) (string, error) {
	var buf bytes.Buffer
	if err := report.NewWriter().WriteCompressed(r, &buf, t); err != nil {
		return "", apperrors.Wrap(apperrors.CodeUploadError, "encode report", err)
	}

	key := ReportKey(prefix, r.RunID, t)
	if err := store.Upload(ctx, key, &buf); err != nil {
		return "", apperrors.Wrap(apperrors.CodeUploadError, "upload "+key, err)
	}
	return key, nil
}

// DownloadReport fetches and decodes the report stored at key.
func DownloadReport(ctx context.Context, store Storage, key string) (*model.ScanReport, error) {
	rc, err := store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return report.Read(rc)
}
