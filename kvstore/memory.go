package kvstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Set-if-absent is atomic within the
// process only, so it suits tests and single-instance development.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]memoryEntry
	now    func() time.Time
	closed bool
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock sets the time source used for expiry
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemory creates an empty in-memory store
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStore("get", key, ErrClosed)
	}
	e, ok := s.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *MemoryStore) SetWithExpiry(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStore("set", key, ErrClosed)
	}
	s.data[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) SetWithExpiryIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrStore("setnx", key, ErrClosed)
	}
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.data[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: s.now().Add(ttl),
	}
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStore("ping", "", ErrClosed)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = make(map[string]memoryEntry)
	return nil
}

// live returns the entry at key if it has not expired, dropping it otherwise.
// Callers hold s.mu.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	e, ok := s.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.data, key)
		return memoryEntry{}, false
	}
	return e, true
}
