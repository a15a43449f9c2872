package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/podcastr/api/internal/config"
)

// MinIOClient implements StorageClient for MinIO and other S3-compatible servers
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
	useSSL    bool
	endpoint  string

	mu          sync.Mutex
	bucketReady bool
}

// NewMinIOClient creates a new MinIO storage client
func NewMinIOClient(cfg *config.MinIOConfig) (*MinIOClient, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("MinIO configuration incomplete")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOClient{
		client:    mc,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		useSSL:    cfg.UseSSL,
		endpoint:  cfg.Endpoint,
	}, nil
}

// Upload puts an asset into the bucket, creating the bucket on first use
func (c *MinIOClient) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}

	_, err := c.client.PutObject(ctx, c.bucket, key, body, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return c.publicURLFor(key), nil
}

// Delete removes an asset from the bucket
func (c *MinIOClient) Delete(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

func (c *MinIOClient) ensureBucket(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bucketReady {
		return nil
	}

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("[MinIO] Created bucket %s", c.bucket)
	}
	c.bucketReady = true
	return nil
}

func (c *MinIOClient) publicURLFor(key string) string {
	if c.publicURL != "" {
		return fmt.Sprintf("%s/%s", c.publicURL, key)
	}
	scheme := "http"
	if c.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.endpoint, c.bucket, key)
}
