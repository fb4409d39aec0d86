package render

import (
	"html/template"
	"sort"
	"strings"
	"sync"
)

// View is the surface the controller renders into: the pager element, its
// navigation containers and its class list.
type View interface {
	// ReplaceContent swaps the pager content for fragments.
	ReplaceContent(fragments []template.HTML)

	// RemoveContent removes whatever ReplaceContent last inserted.
	RemoveContent()

	// AttachNavigation inserts nav into the containers matching selector,
	// or at the end of the pager when selector is empty. The returned
	// function removes what was inserted.
	AttachNavigation(selector string, nav Navigation) (detach func())

	// SetMarker adds or removes a class on the pager element.
	SetMarker(class string, on bool)
}

type mountedNav struct {
	id       int
	selector string
	nav      Navigation
}

// Buffer is an in-memory View. It is safe for concurrent use.
type Buffer struct {
	mu      sync.Mutex
	content []template.HTML
	navs    []mountedNav
	classes map[string]bool
	nextID  int
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{classes: make(map[string]bool)}
}

// ReplaceContent implements View.
func (b *Buffer) ReplaceContent(fragments []template.HTML) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = append([]template.HTML(nil), fragments...)
}

// RemoveContent implements View.
func (b *Buffer) RemoveContent() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = nil
}

// AttachNavigation implements View.
func (b *Buffer) AttachNavigation(selector string, nav Navigation) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.navs = append(b.navs, mountedNav{id: id, selector: selector, nav: nav})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, m := range b.navs {
			if m.id == id {
				b.navs = append(b.navs[:i], b.navs[i+1:]...)
				return
			}
		}
	}
}

// SetMarker implements View.
func (b *Buffer) SetMarker(class string, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on {
		b.classes[class] = true
		return
	}
	delete(b.classes, class)
}

// Content returns the current pager content.
func (b *Buffer) Content() []template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]template.HTML(nil), b.content...)
}

// Navigations returns the attached navigations in attach order.
func (b *Buffer) Navigations() []Navigation {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Navigation, 0, len(b.navs))
	for _, m := range b.navs {
		out = append(out, m.nav)
	}
	return out
}

// HasMarker reports whether class is set on the pager.
func (b *Buffer) HasMarker(class string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.classes[class]
}

// HTML serialises the buffer: the pager element with its content and
// inline navigation, followed by one wrapper per navigation container.
func (b *Buffer) HTML() template.HTML {
	b.mu.Lock()
	defer b.mu.Unlock()

	classes := make([]string, 0, len(b.classes)+1)
	classes = append(classes, "voog-pager")
	for class := range b.classes {
		classes = append(classes, class)
	}
	sort.Strings(classes[1:])

	var sb strings.Builder
	sb.WriteString(`<div class="`)
	sb.WriteString(template.HTMLEscapeString(strings.Join(classes, " ")))
	sb.WriteString(`">`)
	for _, fragment := range b.content {
		sb.WriteString(string(fragment))
	}
	for _, m := range b.navs {
		if m.selector == "" {
			sb.WriteString(string(m.nav.HTML))
		}
	}
	sb.WriteString(`</div>`)

	for _, m := range b.navs {
		if m.selector == "" {
			continue
		}
		sb.WriteString(`<div data-nav-container="`)
		sb.WriteString(template.HTMLEscapeString(m.selector))
		sb.WriteString(`">`)
		sb.WriteString(string(m.nav.HTML))
		sb.WriteString(`</div>`)
	}

	return template.HTML(sb.String())
}
