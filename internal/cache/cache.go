// Package cache implements the in-process read-through cache used to
// bound provider request volume. Entries carry an absolute expiry and
// concurrent misses for the same key are coalesced into a single
// producer call.
package cache

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry struct {
	value   any
	expires time.Time
}

// Store owns all cached entries. It is safe for concurrent use and is
// meant to be constructed once and injected, so tests can run against an
// isolated instance.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group

	// now is swappable in tests.
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// get returns the live value for key, expiring it passively if its TTL
// has elapsed.
func (s *Store) get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(e.expires) {
		s.mu.Lock()
		// Re-check under the write lock: a fresher entry may have been
		// stored while we upgraded.
		if e2, ok := s.entries[key]; ok && s.now().After(e2.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (s *Store) set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, expires: s.now().Add(ttl)}
	s.mu.Unlock()
}

// Delete drops an entry so the next fetch goes to the producer. Used for
// forced refreshes.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) fetch(key string, ttl time.Duration, producer func() (any, error)) (any, error) {
	if v, ok := s.get(key); ok {
		return v, nil
	}

	// All concurrent callers for a missing key share one producer call
	// and observe the same value or the same error. Failures are not
	// cached: the next caller retries.
	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.get(key); ok {
			return v, nil
		}
		v, err := producer()
		if err != nil {
			return nil, err
		}
		s.set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Fetch returns the cached value for key if one is live, otherwise runs
// producer exactly once per key across concurrent callers and caches the
// result for ttl.
func Fetch[T any](s *Store, key string, ttl time.Duration, producer func() (T, error)) (T, error) {
	v, err := s.fetch(key, ttl, func() (any, error) {
		return producer()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Key builds a cache key from a schema version and its parts. Every
// parameter that affects the cached value must be a part; bumping the
// version invalidates all previously cached shapes.
func Key(version string, parts ...string) string {
	all := append([]string{version}, parts...)
	for i, p := range all {
		all[i] = safe(p)
	}
	return strings.Join(all, ":")
}

// safe escapes characters that would make keys ambiguous.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
