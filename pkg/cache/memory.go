package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryItem struct {
	entry    Entry
	evictAt  time.Time
	byteSize int
}

// MemoryStore is a process local Store.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]memoryItem
	bytes     int
	retention time.Duration
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention < 0 {
		retention = 0
	}
	return &MemoryStore{
		items:     make(map[string]memoryItem),
		retention: retention,
		now:       time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	item, ok := s.items[k]
	if !ok || s.now().After(item.evictAt) {
		s.remove(k)
		CacheMisses.WithLabelValues("memory").Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	entry := item.entry
	return &entry, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	keep := entry.TTL() + s.retention
	if keep <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	s.remove(k)
	s.items[k] = memoryItem{
		entry:    *entry,
		evictAt:  s.now().Add(keep),
		byteSize: len(entry.Data),
	}
	s.bytes += len(entry.Data)
	CacheSize.WithLabelValues("memory").Add(float64(len(entry.Data)))
	CacheBytesWritten.WithLabelValues("memory").Add(float64(len(entry.Data)))
	return nil
}

// remove drops k and its bytes. Callers hold mu.
func (s *MemoryStore) remove(k string) {
	item, ok := s.items[k]
	if !ok {
		return
	}
	delete(s.items, k)
	s.bytes -= item.byteSize
	CacheSize.WithLabelValues("memory").Sub(float64(item.byteSize))
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(key.String())
	return nil
}

// UpdateTTL implements Store.
func (s *MemoryStore) UpdateTTL(ctx context.Context, key Key, newExpires time.Time) error {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	entry.Expires = newExpires
	return s.Set(ctx, key, entry)
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Bytes returns the page data held by live entries.
func (s *MemoryStore) Bytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}
