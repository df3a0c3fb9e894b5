package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes generated documents under a base directory. It backs
// the CLI and tests, where a bucket is overkill.
type LocalStore struct {
	baseDir string
}

var _ BlobStore = (*LocalStore)(nil)

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (l *LocalStore) Upload(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error) {
	path := filepath.Join(l.baseDir, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create object file: %w", err)
	}

	size, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write object file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return &UploadResult{ObjectName: objectName, Size: size}, nil
}

func (l *LocalStore) Read(ctx context.Context, objectName string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.baseDir, filepath.FromSlash(objectName)))
}

func (l *LocalStore) Delete(ctx context.Context, objectName string) error {
	return os.Remove(filepath.Join(l.baseDir, filepath.FromSlash(objectName)))
}

func (l *LocalStore) Close() error { return nil }
