package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemStore implements ArtifactStore on a local directory. Each
// artifact is one content file plus a ".type" sidecar holding the content
// type.
type FilesystemStore struct {
	rootDir string
}

// NewFilesystemStore creates a filesystem-backed artifact store.
func NewFilesystemStore(rootDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FilesystemStore{rootDir: rootDir}, nil
}

// path maps a key to a file path, rejecting traversal outside the root.
func (s *FilesystemStore) path(key string) (string, error) {
	clean := filepath.Join(s.rootDir, filepath.FromSlash(key))
	if !strings.HasPrefix(clean, filepath.Clean(s.rootDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return clean, nil
}

// Put implements ArtifactStore.
func (s *FilesystemStore) Put(_ context.Context, key string, content io.Reader, contentType string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close artifact file: %w", err)
	}

	if err := os.WriteFile(path+".type", []byte(contentType), 0o644); err != nil {
		return fmt.Errorf("failed to write content type: %w", err)
	}
	return nil
}

// Get implements ArtifactStore.
func (s *FilesystemStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrArtifactNotFound
		}
		return nil, "", fmt.Errorf("failed to open artifact: %w", err)
	}

	contentType := "application/octet-stream"
	if data, err := os.ReadFile(path + ".type"); err == nil {
		contentType = string(data)
	}
	return f, contentType, nil
}

// Exists implements ArtifactStore.
func (s *FilesystemStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat artifact: %w", err)
	}
	return true, nil
}

// Delete implements ArtifactStore.
func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	if err := os.Remove(path + ".type"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete content type: %w", err)
	}
	return nil
}

// HealthCheck implements ArtifactStore: the root must exist and be writable.
func (s *FilesystemStore) HealthCheck(_ context.Context) error {
	probe, err := os.CreateTemp(s.rootDir, ".healthcheck-*")
	if err != nil {
		return fmt.Errorf("artifact root not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}
