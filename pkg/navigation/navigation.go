// Package navigation computes the page links shown under a paginated list.
//
// Window lays out the numbered entries: every page when they all fit,
// otherwise a truncated layout with edgeLength pages pinned at each end and
// ellipses where pages were skipped. Build wraps a window in prev/next
// entries and resolves hrefs and state.
package navigation

import (
	"github.com/Sternrassler/voog-pager/pkg/linkheader"
	"github.com/Sternrassler/voog-pager/pkg/urlcodec"
)

// Kind tags a navigation entry.
type Kind int

const (
	// KindPage is a numbered page link.
	KindPage Kind = iota

	// KindEllipsis marks skipped pages.
	KindEllipsis

	// KindPrev links to the previous page.
	KindPrev

	// KindNext links to the next page.
	KindNext
)

// String returns the kind name used in markup and logs.
func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindEllipsis:
		return "ellipsis"
	case KindPrev:
		return "prev"
	case KindNext:
		return "next"
	default:
		return "unknown"
	}
}

// Entry is one item of the navigation.
type Entry struct {
	Kind Kind

	// Page is the page the entry navigates to. For prev/next it is the
	// current page minus/plus one; it is zero for ellipses.
	Page int

	// Href is the link target, empty for ellipses and disabled entries.
	Href string

	// Current marks the entry of the page being shown.
	Current bool

	// Disabled marks prev/next entries without a server supplied link.
	Disabled bool
}

// Navigable reports whether selecting the entry should load a page.
func (e Entry) Navigable() bool {
	return e.Kind != KindEllipsis && !e.Disabled
}

// Window returns the numbered entries and ellipses for the given layout.
// Entries carry only Kind and Page.
func Window(totalPages, currentPage, totalLength, edgeLength int) []Entry {
	rim := totalLength - (edgeLength + 1)
	middle := totalLength - 2*(edgeLength+1)

	entries := make([]Entry, 0, totalLength+2)
	pages := func(from, to int) {
		for i := from; i <= to; i++ {
			entries = append(entries, Entry{Kind: KindPage, Page: i})
		}
	}
	ellipsis := func() {
		entries = append(entries, Entry{Kind: KindEllipsis})
	}

	switch {
	case totalPages < totalLength:
		pages(1, totalPages)
	case currentPage < rim:
		pages(1, rim)
		ellipsis()
		pages(totalPages+1-edgeLength, totalPages)
	case currentPage > totalPages+1-rim:
		pages(1, edgeLength)
		ellipsis()
		pages(totalPages+1-rim, totalPages)
	default:
		half := middle / 2
		start := currentPage - half
		end := currentPage + half
		if middle%2 == 0 {
			end = currentPage + half - 1
		}

		pages(1, edgeLength)
		ellipsis()
		pages(start, end)
		ellipsis()
		pages(totalPages+1-edgeLength, totalPages)
	}

	return entries
}

// Params are the inputs of Build.
type Params struct {
	TotalPages  int
	CurrentPage int
	TotalLength int
	EdgeLength  int

	// Links are the relations parsed from the response Link header.
	Links linkheader.Links

	// HrefFor returns the href of a numbered page. Nil leaves hrefs empty.
	HrefFor func(page int) string
}

// Build returns the full navigation: prev, the window, next.
func Build(p Params) []Entry {
	window := Window(p.TotalPages, p.CurrentPage, p.TotalLength, p.EdgeLength)

	entries := make([]Entry, 0, len(window)+2)
	entries = append(entries, edge(KindPrev, "prev", p.CurrentPage-1, p.Links))

	for _, e := range window {
		if e.Kind == KindPage {
			e.Current = e.Page == p.CurrentPage
			if p.HrefFor != nil {
				e.Href = p.HrefFor(e.Page)
			}
		}
		entries = append(entries, e)
	}

	return append(entries, edge(KindNext, "next", p.CurrentPage+1, p.Links))
}

func edge(kind Kind, rel string, page int, links linkheader.Links) Entry {
	e := Entry{Kind: kind, Page: page}
	href, ok := links.Href(rel)
	if !ok {
		e.Disabled = true
		return e
	}
	e.Href = urlcodec.QueryOf(href)
	return e
}

// Pages extracts the page numbers of a sequence, with 0 for ellipses and
// prev/next omitted. It is mostly useful for logging and tests.
func Pages(entries []Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case KindPage:
			out = append(out, e.Page)
		case KindEllipsis:
			out = append(out, 0)
		}
	}
	return out
}
