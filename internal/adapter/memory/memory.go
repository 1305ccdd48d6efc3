// Package memory implements the kv.Store port in memory for development and
// testing.
package memory

import (
	"context"
	"sync"
	"time"

	"mitocards/internal/kv"
)

// Store is a mutex-guarded in-memory key-value store with lazy expiry.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	sets    map[string]map[string]struct{}
}

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		sets:    make(map[string]map[string]struct{}),
	}
}

// Ensure the interface is met.
var _ kv.Store = (*Store)(nil)

// Get returns the value at key, or nil if absent or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key), nil
}

func (s *Store) getLocked(key string) []byte {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e.value
}

// Set stores value at key, overwriting any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Del removes the given keys, both scalar entries and sets.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
		delete(s.sets, key)
	}
	return nil
}

// MGet returns values aligned with keys; misses are nil.
func (s *Store) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(keys))
	for i, key := range keys {
		out[i] = s.getLocked(key)
	}
	return out, nil
}

// SAdd adds member to the set at key, creating the set if needed.
func (s *Store) SAdd(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

// SRem removes member from the set at key. Removing from a missing set or a
// set not containing the member is a no-op.
func (s *Store) SRem(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(s.sets, key)
		}
	}
	return nil
}

// SMembers returns the members of the set at key, empty if absent.
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[key]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out, nil
}
