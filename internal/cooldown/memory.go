package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with a mutex-guarded map. Meant for tests
// and single-process runs; a multi-instance deployment needs the redis
// store, since process memory is not shared between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	at        time.Time
	expiresAt time.Time // zero means no expiry
}

type MemoryOption func(*MemoryStore)

// WithClock overrides the store clock. Used in tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Last(ctx context.Context, action string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[action]
	if !ok {
		return time.Time{}, false, nil
	}
	if !rec.expiresAt.IsZero() && s.now().After(rec.expiresAt) {
		delete(s.records, action)
		return time.Time{}, false, nil
	}
	return rec.at, true, nil
}

func (s *MemoryStore) Record(ctx context.Context, action string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[action] = memoryRecord{at: at}
	return nil
}

func (s *MemoryStore) Acquire(ctx context.Context, action string, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	rec, ok := s.records[action]
	if ok && (rec.expiresAt.IsZero() || now.Before(rec.expiresAt)) {
		return false, nil
	}
	s.records[action] = memoryRecord{at: now, expiresAt: now.Add(window)}
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, action)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
