// Package location abstracts the browser location and session history.
//
// The pagination controller only needs to read the current URL, push new
// history entries, fall back to full navigations and observe back/forward
// navigation. Memory implements all of that in process, which is what the
// terminal UI and the tests run against.
package location

import (
	"net/url"
	"strings"
	"sync"
)

// Location is the subset of window.location and window.history the
// controller relies on.
type Location interface {
	// Pathname returns the path of the current URL, e.g. "/blog".
	Pathname() string

	// Search returns the query string including the leading "?", or "".
	Search() string

	// Hash returns the fragment including the leading "#", or "".
	Hash() string

	// SupportsPushState reports whether history entries can be pushed
	// without a full navigation.
	SupportsPushState() bool

	// PushState adds a history entry for rawURL without navigating.
	PushState(rawURL string)

	// Assign performs a full navigation to rawURL.
	Assign(rawURL string)

	// SetHash replaces the fragment, creating a history entry.
	SetHash(hash string)

	// OnPopState registers fn to run after back/forward navigation.
	// The returned function removes the registration.
	OnPopState(fn func()) (cancel func())
}

type entry struct {
	path   string
	search string
	hash   string
}

func (e entry) String() string {
	return e.path + e.search + e.hash
}

// Memory is an in-process Location with a linear history stack.
// It is safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	history   []entry
	index     int
	pushState bool
	reloads   int
	listeners map[int]func()
	nextID    int
}

// MemoryOption configures a Memory location.
type MemoryOption func(*Memory)

// WithoutPushState makes the location behave like a browser lacking the
// history API: SupportsPushState reports false.
func WithoutPushState() MemoryOption {
	return func(m *Memory) {
		m.pushState = false
	}
}

// NewMemory creates a location positioned at rawURL.
func NewMemory(rawURL string, opts ...MemoryOption) *Memory {
	m := &Memory{
		history:   []entry{parse(entry{path: "/"}, rawURL)},
		pushState: true,
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pathname implements Location.
func (m *Memory) Pathname() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[m.index].path
}

// Search implements Location.
func (m *Memory) Search() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[m.index].search
}

// Hash implements Location.
func (m *Memory) Hash() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[m.index].hash
}

// URL returns the current path, query and fragment.
func (m *Memory) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[m.index].String()
}

// SupportsPushState implements Location.
func (m *Memory) SupportsPushState() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushState
}

// PushState implements Location. Forward entries are discarded.
func (m *Memory) PushState(rawURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.push(parse(m.history[m.index], rawURL))
}

// Assign implements Location. A full navigation is recorded as a reload.
func (m *Memory) Assign(rawURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.push(parse(m.history[m.index], rawURL))
	m.reloads++
}

// SetHash implements Location.
func (m *Memory) SetHash(hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.history[m.index]
	next.hash = normalizeHash(hash)
	m.push(next)
}

// OnPopState implements Location.
func (m *Memory) OnPopState(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Back moves one entry back and notifies pop-state listeners.
// It returns false at the start of the history.
func (m *Memory) Back() bool {
	return m.move(-1)
}

// Forward moves one entry forward and notifies pop-state listeners.
// It returns false at the end of the history.
func (m *Memory) Forward() bool {
	return m.move(1)
}

// Len returns the number of history entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// Reloads returns how many full navigations happened through Assign.
func (m *Memory) Reloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloads
}

func (m *Memory) move(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if target < 0 || target >= len(m.history) {
		m.mu.Unlock()
		return false
	}
	m.index = target

	listeners := make([]func(), 0, len(m.listeners))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	m.mu.Unlock()

	// Listeners run without the lock so they can read the location.
	for _, fn := range listeners {
		fn()
	}
	return true
}

func (m *Memory) push(e entry) {
	m.history = append(m.history[:m.index+1], e)
	m.index = len(m.history) - 1
}

// parse resolves rawURL against base the way a browser resolves a
// relative href: "?q" keeps the path, "#h" keeps path and query.
func parse(base entry, rawURL string) entry {
	switch {
	case rawURL == "":
		return base
	case strings.HasPrefix(rawURL, "#"):
		base.hash = normalizeHash(rawURL)
		return base
	case strings.HasPrefix(rawURL, "?"):
		search, hash, _ := strings.Cut(rawURL, "#")
		base.search = normalizeSearch(search)
		base.hash = normalizeHash(hash)
		return base
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return base
	}

	next := entry{path: u.EscapedPath()}
	if next.path == "" {
		next.path = base.path
	}
	if u.RawQuery != "" || u.ForceQuery {
		next.search = "?" + u.RawQuery
	}
	if u.Fragment != "" {
		next.hash = "#" + u.EscapedFragment()
	}
	return next
}

func normalizeSearch(s string) string {
	if s == "" || s == "?" {
		return ""
	}
	if !strings.HasPrefix(s, "?") {
		return "?" + s
	}
	return s
}

func normalizeHash(h string) string {
	if h == "" || h == "#" {
		return ""
	}
	if !strings.HasPrefix(h, "#") {
		return "#" + h
	}
	return h
}
