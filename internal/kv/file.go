package kv

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Compile-time check: FileStorage satisfies Storage.
var _ Storage = (*FileStorage)(nil)

// FileStorage persists each key as a file under a base directory.
// Writes go to a temporary file that is renamed into place, so a reader never
// observes a partially written value.
type FileStorage struct {
	baseDir string
}

// NewFileStorage creates a FileStorage that saves values under baseDir.
func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{baseDir: baseDir}
}

// GetItem reads the value stored under key.
func (s *FileStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv: reading %s: %w", p, err)
	}
	return string(data), true, nil
}

// SetItem atomically replaces the file for key with value.
func (s *FileStorage) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("kv: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, ".kv-*.tmp")
	if err != nil {
		return fmt.Errorf("kv: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	// Best-effort cleanup; after a successful rename the temp name is gone.
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("kv: writing %s: %w", p, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("kv: syncing %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kv: closing %s: %w", p, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("kv: replacing %s: %w", p, err)
	}
	return nil
}

// RemoveItem deletes the file for key.
func (s *FileStorage) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("kv: removing %s: %w", p, err)
	}
	return nil
}

// Close is a no-op; FileStorage holds no open handles between calls.
func (s *FileStorage) Close() error {
	return nil
}

// path returns the filesystem path for a key. Keys are path-escaped so that
// separators cannot leave baseDir; dot-segments are rejected.
func (s *FileStorage) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	name := url.PathEscape(key)
	if name == "." || name == ".." || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, name+".json"), nil
}
