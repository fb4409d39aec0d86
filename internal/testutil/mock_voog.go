// Package testutil provides a mock Voog admin API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockVoogResponse defines the behavior for a fixed mock endpoint response.
type MockVoogResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockVoog is a configurable mock Voog server for testing.
//
// Paths registered with SetItems are paginated from the page and per_page
// query parameters and answer with X-Total-Pages, Link and ETag headers.
type MockVoog struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	items    map[string][]json.RawMessage
	gate     chan struct{}
	maxAge   int

	// Tracking
	RequestCount      int
	ConditionalCount  int
	InFlight          int
	LastRequestHeader http.Header
	LastRequestURL    string
}

// NewMockVoog creates a new mock Voog server.
func NewMockVoog() *MockVoog {
	mock := &MockVoog{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		items:    make(map[string][]json.RawMessage),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.InFlight++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastRequestURL = r.URL.RequestURI()

		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		gate := mock.gate
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.InFlight--
			mock.mu.Unlock()
		}()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if exists {
			handler(w, r)
			return
		}

		mock.pagedHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockVoog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockVoog) Close() {
	m.mu.Lock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
	m.mu.Unlock()
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockVoog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.LastRequestURL = ""
}

// Block holds every following request until the returned release is called.
func (m *MockVoog) Block() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gate == gate {
				m.gate = nil
			}
			m.mu.Unlock()
			close(gate)
		})
	}
}

// SetMaxAge makes paged responses carry Cache-Control max-age instead of no-cache.
func (m *MockVoog) SetMaxAge(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxAge = seconds
}

// SetHandler sets a custom handler for a specific path.
// A nil handler restores the paged default.
func (m *MockVoog) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if handler == nil {
		delete(m.handlers, path)
		return
	}
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockVoog) SetResponse(path string, resp MockVoogResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetItems registers the full item list served page by page under path.
func (m *MockVoog) SetItems(path string, items []json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[path] = items
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockVoog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockVoog) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetInFlight returns the number of requests currently being served.
func (m *MockVoog) GetInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.InFlight
}

// GetLastRequestURL returns the request URI of the latest request.
func (m *MockVoog) GetLastRequestURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestURL
}

// GetLastRequestHeader returns the headers of the latest request.
func (m *MockVoog) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader
}

// pagedHandler serves one page of the items registered for the path.
func (m *MockVoog) pagedHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	items, ok := m.items[r.URL.Path]
	maxAge := m.maxAge
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "not found"}`))
		return
	}

	query := r.URL.Query()
	page := positive(query.Get("page"), 1)
	perPage := positive(query.Get("per_page"), 50)

	totalPages := (len(items) + perPage - 1) / perPage
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	etag := fmt.Sprintf(`"%s-%d-%d-%d"`, strings.ReplaceAll(strings.Trim(r.URL.Path, "/"), "/", "-"), page, perPage, len(items))
	if maxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", maxAge))
	} else {
		w.Header().Set("Cache-Control", "no-cache")
	}
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("X-Total-Pages", strconv.Itoa(totalPages))
	if link := m.linkHeader(r, page, totalPages); link != "" {
		w.Header().Set("Link", link)
	}

	pageItems := items[start:end]
	if pageItems == nil {
		pageItems = []json.RawMessage{}
	}
	body, _ := json.Marshal(pageItems)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// linkHeader builds next/prev relations pointing back at this server.
func (m *MockVoog) linkHeader(r *http.Request, page, totalPages int) string {
	at := func(p int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(p))
		return fmt.Sprintf("%s%s?%s", m.server.URL, r.URL.Path, q.Encode())
	}

	var links []string
	if page < totalPages {
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, at(page+1)))
	}
	if page > 1 {
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, at(page-1)))
	}
	return strings.Join(links, ", ")
}

func positive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Articles generates n article items titled "Article 1".."Article n".
func Articles(n int) []json.RawMessage {
	items := make([]json.RawMessage, n)
	for i := range items {
		items[i] = json.RawMessage(fmt.Sprintf(
			`{"id":%d,"title":"Article %d","public_url":"/blog/article-%d","excerpt":"<p>Excerpt %d</p>","published_at":"2024-03-0%dT10:00:00.000Z","author":{"name":"Author %d"}}`,
			i+1, i+1, i+1, i+1, i%9+1, i+1))
	}
	return items
}

// Elements generates n element items.
func Elements(n int) []json.RawMessage {
	items := make([]json.RawMessage, n)
	for i := range items {
		items[i] = json.RawMessage(fmt.Sprintf(
			`{"id":%d,"title":"Element %d","public_url":"/catalog/element-%d","values":{"price":"%d"}}`,
			i+1, i+1, i+1, (i+1)*10))
	}
	return items
}

// Comments generates n comment items.
func Comments(n int) []json.RawMessage {
	items := make([]json.RawMessage, n)
	for i := range items {
		items[i] = json.RawMessage(fmt.Sprintf(
			`{"id":%d,"author":"Reader %d","body":"Comment %d","created_at":"2024-03-1%dT08:30:00.000Z"}`,
			i+1, i+1, i+1, i%9+1))
	}
	return items
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockVoogResponse {
	return MockVoogResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockVoogResponse {
	return MockVoogResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message": "not found"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
