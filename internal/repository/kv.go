package repository

import (
	"context"
	"errors"
	"sync"
)

// ErrKeyNotFound is returned when a value key has never been set.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the small key-value surface used for user preferences and usage counters.
// Values, counters and sets live in separate namespaces.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	AddToSet(ctx context.Context, key, member string) (bool, error)
}

// MemoryKVStore keeps everything in process memory.
type MemoryKVStore struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int64
	sets     map[string]map[string]struct{}
}

// NewMemoryKVStore creates an empty in-memory store.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{
		values:   make(map[string]string),
		counters: make(map[string]int64),
		sets:     make(map[string]map[string]struct{}),
	}
}

// Get returns the value stored under key.
func (s *MemoryKVStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *MemoryKVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Increment adds delta to the counter under key and returns the new total.
func (s *MemoryKVStore) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] += delta
	return s.counters[key], nil
}

// AddToSet adds member to the set under key and reports whether it was new.
func (s *MemoryKVStore) AddToSet(ctx context.Context, key, member string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return false, nil
	}
	set[member] = struct{}{}
	return true, nil
}

// Counter returns the current counter value. Missing counters read as zero.
func (s *MemoryKVStore) Counter(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key]
}

// SetSize returns the number of members in the set under key.
func (s *MemoryKVStore) SetSize(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets[key])
}
