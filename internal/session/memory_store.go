package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process Store for development and tests. Entries
// expire after the TTL like their Redis counterparts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	stats   Stats
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		stats:   Stats{Since: time.Now()},
	}
}

func (s *MemoryStore) key(sid, key string) string {
	return sid + ":" + key
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(sid, key)
	entry, ok := s.entries[k]
	if ok && s.expired(entry) {
		delete(s.entries, k)
		ok = false
	}
	if !ok {
		s.stats.Misses++
		return "", false, nil
	}

	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
		s.entries[k] = entry
	}
	s.stats.Hits++
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	if sid == "" {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[s.key(sid, key)] = entry
	s.stats.Sets++
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, sid, key string) error {
	if sid == "" {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, s.key(sid, key))
	s.stats.Removes++
	return nil
}

func (s *MemoryStore) Take(_ context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(sid, key)
	entry, ok := s.entries[k]
	delete(s.entries, k)
	if !ok || s.expired(entry) {
		s.stats.Misses++
		return "", false, nil
	}
	s.stats.Hits++
	s.stats.Removes++
	return entry.value, true, nil
}

func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
