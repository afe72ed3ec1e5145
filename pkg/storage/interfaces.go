package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrArtifactNotFound is returned by Get and Delete for unknown keys.
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore stores redacted output blobs keyed by opaque string keys.
type ArtifactStore interface {
	// Put writes the artifact, overwriting any previous content at key.
	Put(ctx context.Context, key string, content io.Reader, contentType string) error
	// Get returns the artifact content and its content type. The caller
	// closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Exists reports whether an artifact is present without fetching it.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the artifact. Deleting an absent key is not an error;
	// cleanup must be idempotent.
	Delete(ctx context.Context, key string) error
	// HealthCheck verifies the backend is reachable and writable.
	HealthCheck(ctx context.Context) error
}

// Config selects and configures the storage backend.
type Config struct {
	Type string // "filesystem" or "s3"

	// Filesystem config
	FilesystemRoot string

	// S3 config
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	S3Timeout      time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Type:           "filesystem",
		FilesystemRoot: "/var/lib/veil/artifacts",
		S3Region:       "us-east-1",
		S3Timeout:      30 * time.Second,
	}
}

// New builds the backend named by cfg.Type.
func New(cfg Config) (ArtifactStore, error) {
	switch cfg.Type {
	case "filesystem", "":
		return NewFilesystemStore(cfg.FilesystemRoot)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
