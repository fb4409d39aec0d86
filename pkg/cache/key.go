package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached page.
type Key struct {
	// Endpoint is the API path (e.g., "/admin/api/articles")
	Endpoint string

	// QueryParams are the request query parameters
	QueryParams url.Values
}

// KeyFor builds the key of a request URL. Absolute and relative URLs of the
// same path and query map to the same key.
func KeyFor(rawURL string) (Key, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Key{}, fmt.Errorf("parse request url: %w", err)
	}
	return Key{
		Endpoint:    u.Path,
		QueryParams: u.Query(),
	}, nil
}

// String generates a deterministic key string.
// Format: voog:endpoint:query1=val1:query2=val2a,val2b
//
// Example:
//
//	voog:admin/api/articles:page=2:per_page=12
func (k Key) String() string {
	parts := []string{"voog"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	return strings.Join(parts, ":")
}
