// Package cache stores fetched API pages so that revisiting a page does not
// hit the Voog API again while the response is fresh.
//
// Two stores implement Store:
//
//   - RedisStore shares pages between processes (the serve command)
//   - MemoryStore keeps pages in process (the page and browse commands)
//
// Entries outlive their Expires time by a retention window so that stale
// pages carrying an ETag or Last-Modified can be revalidated with a
// conditional request instead of being downloaded again.
//
// # Basic Usage
//
//	store := cache.NewRedisStore(redisClient, cache.DefaultRetention)
//
//	key, err := cache.KeyFor("/admin/api/articles?page=2&per_page=12")
//	if err != nil {
//		return err
//	}
//
//	entry, err := store.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch from the API
//	case entry.IsExpired() && cache.ShouldMakeConditionalRequest(entry):
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Metrics
//
//   - voog_cache_hits_total{layer} - Cache hits by store
//   - voog_cache_misses_total{layer} - Cache misses by store
//   - voog_cache_size_bytes{layer} - Bytes held by memory stores
//   - voog_cache_written_bytes_total{layer} - Bytes written per store
//   - voog_conditional_requests_total - Revalidation requests sent
//   - voog_304_responses_total - Successful revalidations
//   - voog_cache_errors_total{operation} - Store operation errors
package cache
