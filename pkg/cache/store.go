package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultRetention is how long entries are kept after they expire.
const DefaultRetention = 10 * time.Minute

// Store persists cache entries.
//
// Get returns stale entries until their retention window passes; callers
// check Entry.IsExpired to decide between serving and revalidating.
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Set(ctx context.Context, key Key, entry *Entry) error
	Delete(ctx context.Context, key Key) error
	UpdateTTL(ctx context.Context, key Key, newExpires time.Time) error
}
