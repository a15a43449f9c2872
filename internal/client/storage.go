package client

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/podcastr/api/internal/config"
)

// StorageClient defines the interface for object storage operations
type StorageClient interface {
	// Upload stores body under key and returns the public URL
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageClient builds the client selected by storage.provider. It returns
// nil when no provider is configured so callers fall back to mock URLs.
func NewStorageClient(cfg *config.Config) (StorageClient, error) {
	switch cfg.Storage.Provider {
	case "r2":
		c, err := NewR2Client(&cfg.R2)
		if err != nil {
			return nil, err
		}
		log.Printf("[Storage] Using R2 bucket %s", cfg.R2.BucketName)
		return c, nil
	case "minio":
		c, err := NewMinIOClient(&cfg.MinIO)
		if err != nil {
			return nil, err
		}
		log.Printf("[Storage] Using MinIO bucket %s at %s", cfg.MinIO.Bucket, cfg.MinIO.Endpoint)
		return c, nil
	case "":
		log.Printf("[Storage] No provider configured, using mock URLs")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
}
