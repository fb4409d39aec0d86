// Package urlcodec translates between page numbers and URLs.
//
// It reads the active page from a browser location under one of three
// addressing schemes (see options.URLFormat), builds Voog admin API request
// URLs and writes the current page back into the location.
package urlcodec

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sternrassler/voog-pager/pkg/location"
	"github.com/Sternrassler/voog-pager/pkg/options"
)

// Voog admin API endpoints per item type.
const (
	ArticlesEndpoint = "/admin/api/articles"
	ElementsEndpoint = "/admin/api/elements"
)

// QueryParam returns the value of the named query parameter in rawURL.
// A parameter present without a value yields ("", true).
func QueryParam(name, rawURL string) (string, bool) {
	re, err := regexp.Compile(`[?&]` + regexp.QuoteMeta(name) + `(=([^&#]*)|&|#|$)`)
	if err != nil {
		return "", false
	}

	m := re.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	if m[2] == "" {
		return "", true
	}

	value, err := url.QueryUnescape(m[2])
	if err != nil {
		return strings.ReplaceAll(m[2], "+", " "), true
	}
	return value, true
}

// ParseInt parses the leading integer of s, ignoring leading whitespace and
// any trailing garbage: "12abc" is 12, "abc" is not a number.
func ParseInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// QueryOf returns the query part of rawURL starting at "?", including any
// fragment. It returns "" when rawURL has no query.
func QueryOf(rawURL string) string {
	i := strings.IndexByte(rawURL, '?')
	if i < 0 {
		return ""
	}
	return rawURL[i:]
}

// PageFromURL reads the "page" parameter of a request URL.
func PageFromURL(rawURL string) (int, bool) {
	value, ok := QueryParam("page", rawURL)
	if !ok {
		return 0, false
	}
	return positive(ParseInt(value))
}

// ParsePage reads the active page from a location's search and hash parts.
// It returns false when no positive page number is present.
func ParsePage(search, hash string, o options.Options) (int, bool) {
	switch o.URLFormat {
	case options.URLFormatFullQuery, options.URLFormatSingleQueryVar:
		value, ok := QueryParam(o.QueryKey, search)
		if !ok {
			return 0, false
		}
		return positive(ParseInt(value))
	case options.URLFormatHash:
		return positive(ParseInt(hashPage(hash, o.HashPrefix, o.HashSuffix)))
	default:
		return 0, false
	}
}

// hashPage cuts the page token out of a fragment. A missing prefix starts
// the token at the beginning of the fragment and a missing suffix ends it
// at the end.
func hashPage(hash, prefix, suffix string) string {
	hash = strings.TrimPrefix(hash, "#")
	if hash == "" {
		return ""
	}

	start := 0
	if prefix != "" {
		if i := strings.Index(hash, prefix); i >= 0 {
			start = i + len(prefix)
		}
	}

	token := hash[start:]
	if suffix != "" {
		if i := strings.Index(token, suffix); i >= 0 {
			token = token[:i]
		}
	}
	return token
}

func positive(n int, ok bool) (int, bool) {
	if !ok || n < 1 {
		return 0, false
	}
	return n, true
}

// Endpoint returns the API collection path for the configured item type.
func Endpoint(o options.Options) string {
	switch o.ItemType {
	case options.ItemTypeElement:
		return ElementsEndpoint
	case options.ItemTypeComment:
		return ArticlesEndpoint + "/" + string(o.ParentID) + "/comments"
	default:
		return ArticlesEndpoint
	}
}

// RequestURLBuilder builds the request URL for a page.
type RequestURLBuilder interface {
	BuildRequestURL(page int, o options.Options) string
}

// RequestURLBuilderFunc adapts a function to RequestURLBuilder.
type RequestURLBuilderFunc func(page int, o options.Options) string

// BuildRequestURL implements RequestURLBuilder.
func (f RequestURLBuilderFunc) BuildRequestURL(page int, o options.Options) string {
	return f(page, o)
}

// DefaultBuilder builds Voog admin API URLs.
var DefaultBuilder RequestURLBuilder = RequestURLBuilderFunc(DefaultRequestURL)

// DefaultRequestURL builds
//
//	<endpoint>?page=<n>&per_page=<perPage>[filters][&<queryVars>]
//
// where the filters depend on the item type.
func DefaultRequestURL(page int, o options.Options) string {
	var b strings.Builder
	b.WriteString(Endpoint(o))
	b.WriteString("?page=")
	b.WriteString(strconv.Itoa(page))
	b.WriteString("&per_page=")
	b.WriteString(strconv.Itoa(o.PerPage))

	switch o.ItemType {
	case options.ItemTypeElement:
		b.WriteString("&include_values=true")
		if o.ParentID != "" {
			b.WriteString("&q.element.page_id=")
			b.WriteString(string(o.ParentID))
		}
	case options.ItemTypeComment:
		b.WriteString("&q.comment.spam.$eq=false")
	default:
		if o.ParentID != "" {
			b.WriteString("&page_id=")
			b.WriteString(string(o.ParentID))
		}
		b.WriteString("&include_details=true&s=article.published_at.$desc")
	}

	if o.QueryVars != "" {
		b.WriteString("&")
		b.WriteString(strings.TrimPrefix(o.QueryVars, "&"))
	}

	return b.String()
}

// Update describes how the browser location should change for a page.
type Update struct {
	// Query is the query string handed in, usually QueryOf(requestURL).
	Query string

	// Page is the page number being shown.
	Page int

	// Format is the addressing scheme in effect.
	Format options.URLFormat

	// Search is the new query string for query formats.
	Search string

	// Hash is the new fragment for the hash format.
	Hash string
}

// BrowserURL computes the location change for showing page.
func BrowserURL(query string, page int, o options.Options) Update {
	u := Update{
		Query:  query,
		Page:   page,
		Format: o.URLFormat,
	}

	switch o.URLFormat {
	case options.URLFormatFullQuery:
		u.Search = query
	case options.URLFormatSingleQueryVar:
		u.Search = "?" + o.QueryKey + "=" + strconv.Itoa(page)
	case options.URLFormatHash:
		u.Hash = "#" + o.HashPrefix + strconv.Itoa(page) + o.HashSuffix
	}

	return u
}

// Apply writes u into loc. Query formats push a history entry when
// pushState is true and fall back to a full navigation otherwise.
func Apply(loc location.Location, u Update, pushState bool) {
	switch {
	case u.Format.IsQuery():
		if pushState {
			loc.PushState(u.Search)
			return
		}
		loc.Assign(loc.Pathname() + u.Search)
	case u.Format == options.URLFormatHash:
		loc.SetHash(u.Hash)
	}
}
