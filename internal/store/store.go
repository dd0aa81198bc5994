// Package store owns the contact collection and persists it as a single
// JSON blob in a kv.Storage after every mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smileynet/contacts/internal/contact"
	"github.com/smileynet/contacts/internal/kv"
)

// Key is the storage key holding the serialized collection.
const Key = "@contacts"

// maxIDAttempts bounds regeneration when a fresh ID collides with an existing one.
const maxIDAttempts = 5

var (
	// ErrStorageCorruption indicates the persisted blob could not be parsed.
	ErrStorageCorruption = errors.New("store: storage corruption")
	// ErrStorageRead indicates the backend failed to return the blob.
	ErrStorageRead = errors.New("store: reading storage")
	// ErrPersistence indicates a mutation was applied in memory but not written.
	ErrPersistence = errors.New("store: persisting contacts")
	// ErrNotLoaded is returned by mutations before a successful Load, so an
	// unread or unreadable blob is never overwritten.
	ErrNotLoaded = errors.New("store: contacts not loaded")
	// ErrIDGeneration indicates no unused ID could be produced for a new contact.
	ErrIDGeneration = errors.New("store: generating id")
)

// Policy decides what Load does with a corrupt blob.
type Policy string

const (
	// PolicyFail returns ErrStorageCorruption and leaves the blob untouched.
	PolicyFail Policy = "fail"
	// PolicyReset logs the corruption and starts from an empty collection.
	// The blob is replaced on the next successful mutation.
	PolicyReset Policy = "reset"
)

// Store is the single source of truth for the contact collection.
// Operations are serialized; each runs to completion, including its write,
// before the next starts.
type Store struct {
	mu       sync.Mutex
	storage  kv.Storage
	key      string
	newID    func() (string, error)
	policy   Policy
	logger   *zap.Logger
	contacts []contact.Contact
	loaded   bool
	dirty    bool
}

// Option configures a Store.
type Option func(*Store)

// New creates a Store persisting to storage. Call Load before mutating.
func New(storage kv.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     Key,
		newID:   newUUIDv7,
		policy:  PolicyFail,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the UUIDv7 ID generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.newID = gen }
}

// WithCorruptionPolicy sets how Load treats an unparseable blob.
func WithCorruptionPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// newUUIDv7 returns a time-ordered ID: millisecond timestamp followed by random bits.
func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Load reads the persisted blob into memory. A missing or empty blob yields an
// empty collection. On failure the store is left unloaded and mutations are refused.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = nil
	s.loaded = false
	s.dirty = false

	raw, found, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		s.logger.Error("loading contacts", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	if !found || strings.TrimSpace(raw) == "" {
		s.contacts = []contact.Contact{}
		s.loaded = true
		s.logger.Debug("no stored contacts", zap.String("key", s.key))
		return nil
	}

	list, err := Decode([]byte(raw))
	if err != nil {
		if s.policy == PolicyReset {
			s.logger.Warn("discarding corrupt contacts blob",
				zap.String("key", s.key), zap.Int("bytes", len(raw)), zap.Error(err))
			s.contacts = []contact.Contact{}
			s.loaded = true
			return nil
		}
		s.logger.Error("corrupt contacts blob", zap.String("key", s.key), zap.Error(err))
		return err
	}

	s.contacts = list
	s.loaded = true
	s.logger.Info("contacts loaded", zap.String("key", s.key), zap.Int("count", len(list)))
	return nil
}

// Add creates a contact from trimmed form data with a fresh unique ID, appends
// it and persists the collection. On a write failure the new contact is still
// returned and kept in memory, and the error wraps ErrPersistence.
func (s *Store) Add(ctx context.Context, data contact.FormData) (contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return contact.Contact{}, ErrNotLoaded
	}

	id, err := s.uniqueID()
	if err != nil {
		return contact.Contact{}, err
	}

	c := contact.New(id, data)
	s.contacts = append(s.contacts, c)
	s.logger.Debug("contact added", zap.String("id", id))
	return c, s.persist(ctx)
}

// Update replaces every field except ID of the contact with the given id.
// found is false when no such contact exists; the collection is then
// unchanged. The collection is persisted either way.
func (s *Store) Update(ctx context.Context, id string, data contact.FormData) (c contact.Contact, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return contact.Contact{}, false, ErrNotLoaded
	}

	if i := s.indexOf(id); i >= 0 {
		s.contacts[i] = s.contacts[i].WithForm(data)
		c, found = s.contacts[i], true
		s.logger.Debug("contact updated", zap.String("id", id))
	} else {
		s.logger.Debug("update of unknown contact", zap.String("id", id))
	}
	return c, found, s.persist(ctx)
}

// Delete removes the contact with the given id if present and persists the collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}

	s.contacts = slices.DeleteFunc(s.contacts, func(c contact.Contact) bool { return c.ID == id })
	s.logger.Debug("contact deleted", zap.String("id", id))
	return s.persist(ctx)
}

// Get returns the contact with the given id from memory. No I/O is performed.
func (s *Store) Get(id string) (contact.Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.contacts[i], true
	}
	return contact.Contact{}, false
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []contact.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts)
}

// Len returns the number of contacts in memory.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contacts)
}

// Loaded reports whether the last Load succeeded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Dirty reports whether memory is ahead of storage after a failed write.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush rewrites the current collection. It is the explicit retry after a
// write failure; nothing retries automatically.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrNotLoaded
	}
	return s.persist(ctx)
}

// persist writes the full collection. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	data, err := Encode(s.contacts)
	if err == nil {
		err = s.storage.SetItem(ctx, s.key, string(data))
	}
	if err != nil {
		s.dirty = true
		s.logger.Error("persisting contacts",
			zap.String("key", s.key), zap.Int("count", len(s.contacts)), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.dirty = false
	return nil
}

// uniqueID generates an ID not present in the collection. Callers hold s.mu.
func (s *Store) uniqueID() (string, error) {
	for range maxIDAttempts {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrIDGeneration, err)
		}
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no unique id after %d attempts", ErrIDGeneration, maxIDAttempts)
}

// indexOf returns the position of id in the collection, or -1. Callers hold s.mu.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.contacts, func(c contact.Contact) bool { return c.ID == id })
}
