package kv

import (
	"context"
	"sync"
)

// Compile-time check: MemoryStorage satisfies Storage.
var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps values in a map. Reads and writes can be made to fail,
// which makes it the backend of choice for exercising error paths.
type MemoryStorage struct {
	mu       sync.Mutex
	items    map[string]string
	readErr  error
	writeErr error
	writes   int
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

// FailReads makes subsequent GetItem calls return err. Pass nil to clear.
func (s *MemoryStorage) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// FailWrites makes subsequent SetItem and RemoveItem calls return err. Pass nil to clear.
func (s *MemoryStorage) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Writes returns the number of successful SetItem calls.
func (s *MemoryStorage) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// GetItem returns the value stored under key.
func (s *MemoryStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", false, s.readErr
	}
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (s *MemoryStorage) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.items[key] = value
	s.writes++
	return nil
}

// RemoveItem deletes key.
func (s *MemoryStorage) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.items, key)
	return nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}
