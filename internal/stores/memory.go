package stores

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemorySecretStore is an in-process secret store. Expired entries are
// dropped lazily on access. It is meant for tests and single-node development.
type MemorySecretStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemorySecretStore(now func() time.Time) *MemorySecretStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySecretStore{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

func (s *MemorySecretStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return errors.New("secret ttl must be > 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemorySecretStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(key)
	if !ok {
		return "", ErrSecretNotFound
	}
	return entry.value, nil
}

func (s *MemorySecretStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.liveLocked(key)
	delete(s.entries, key)
	return ok, nil
}

// DeleteIfEqual removes key only while it still holds value.
func (s *MemorySecretStore) DeleteIfEqual(ctx context.Context, key, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(key)
	if !ok || entry.value != value {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// Len returns the number of live entries.
func (s *MemorySecretStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.entries {
		if _, ok := s.liveLocked(key); ok {
			n++
		}
	}
	return n
}

func (s *MemorySecretStore) liveLocked(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}
