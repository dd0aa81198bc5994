// Package kv implements the local key-value storage that the contact store
// persists its blob to. Backends share the Storage interface: files on disk,
// a SQLite table, or process memory.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

// Storage is a string-to-string key-value store.
type Storage interface {
	// GetItem returns (value, true, nil) if key exists, ("", false, nil) if not.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// Close releases resources held by the backend.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultSQLiteFile is the database file name used when Options.SQLiteFile is empty.
const DefaultSQLiteFile = "contacts.db"

// ErrInvalidKey indicates a key is empty.
var ErrInvalidKey = errors.New("kv: invalid key")

// ErrUnknownBackend indicates Open was given a backend name it does not know.
var ErrUnknownBackend = errors.New("kv: unknown backend")

// Options selects and locates a backend.
type Options struct {
	Backend    string // "file" | "sqlite" | "memory"
	Dir        string // Base directory for file and sqlite backends.
	SQLiteFile string // Database file name (or absolute path) for the sqlite backend.
}

// Open creates the Storage described by opts.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStorage(opts.Dir), nil
	case BackendSQLite:
		name := opts.SQLiteFile
		if name == "" {
			name = DefaultSQLiteFile
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(opts.Dir, name)
		}
		return OpenSQLite(ctx, name)
	case BackendMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
