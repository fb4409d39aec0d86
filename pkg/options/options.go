// Package options holds the pagination widget configuration.
//
// Options are resolved once, when a controller is built, from three layers:
//
//  1. Built-in defaults (Defaults)
//  2. Caller supplied settings (for example a YAML settings file)
//  3. Per-element data attributes (the data-pagination JSON blob)
//
// Later layers override earlier ones field by field. Nested objects such as
// navigation and defaultNotifications are merged key by key, so a data
// attribute of {"navigation":{"edgeLength":2}} keeps the default totalLength.
package options

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ItemType selects which kind of Voog resource is paginated.
type ItemType string

const (
	// ItemTypeArticle paginates blog articles.
	ItemTypeArticle ItemType = "article"

	// ItemTypeElement paginates catalogue elements.
	ItemTypeElement ItemType = "element"

	// ItemTypeComment paginates the comments of one article.
	ItemTypeComment ItemType = "comment"
)

// URLFormat selects how the current page is reflected in the browser URL.
type URLFormat string

const (
	// URLFormatFullQuery mirrors the whole API query string in the page URL.
	URLFormatFullQuery URLFormat = "fullQuery"

	// URLFormatSingleQueryVar keeps only ?<queryKey>=<page>.
	URLFormatSingleQueryVar URLFormat = "singleQueryVar"

	// URLFormatHash writes #<hashPrefix><page><hashSuffix>.
	URLFormatHash URLFormat = "hash"
)

// IsQuery reports whether the format is carried in the query string.
func (f URLFormat) IsQuery() bool {
	return f == URLFormatFullQuery || f == URLFormatSingleQueryVar
}

// ID is a Voog resource id. Data attributes carry ids as numbers while
// settings files usually quote them, so both forms are accepted.
type ID string

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parse id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parse id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

// Navigation configures the rendered page links.
type Navigation struct {
	// Container is a selector for the element(s) the navigation is rendered
	// into. Empty renders it into the pager itself, after the items.
	Container string `json:"container"`

	// TotalLength is the number of numbered entries, prev/next excluded.
	TotalLength int `json:"totalLength"`

	// EdgeLength is how many pages stay pinned at each end when truncating.
	EdgeLength int `json:"edgeLength"`
}

// Notifications are the default message texts. They may contain markup.
type Notifications struct {
	NoItems string `json:"noItems"`
	Error   string `json:"error"`
}

// Options is the resolved, immutable widget configuration.
type Options struct {
	PerPage                 int           `json:"perPage"`
	ItemType                ItemType      `json:"itemType"`
	ParentID                ID            `json:"parentId"`
	QueryVars               string        `json:"queryVars"`
	StartingPage            int           `json:"startingPage"`
	RenderItemsOnFirstFetch bool          `json:"renderItemsOnFirstFetch"`
	UseHistoryPushState     bool          `json:"useHistoryPushState"`
	EnablePageURLs          bool          `json:"enablePageUrls"`
	URLFormat               URLFormat     `json:"urlFormat"`
	QueryKey                string        `json:"queryKey"`
	HashPrefix              string        `json:"hashPrefix"`
	HashSuffix              string        `json:"hashSuffix"`
	Navigation              Navigation    `json:"navigation"`
	DefaultNotifications    Notifications `json:"defaultNotifications"`
	EventNamespace          string        `json:"eventNameSpace"`
	InitClass               string        `json:"initClass"`
	CachePages              bool          `json:"cachePages"`
}

// Defaults returns the built-in configuration.
func Defaults() Options {
	return Options{
		PerPage:                 12,
		ItemType:                ItemTypeArticle,
		StartingPage:            1,
		RenderItemsOnFirstFetch: true,
		UseHistoryPushState:     true,
		EnablePageURLs:          true,
		URLFormat:               URLFormatFullQuery,
		QueryKey:                "page",
		HashPrefix:              "page-",
		HashSuffix:              "",
		Navigation: Navigation{
			TotalLength: 9,
			EdgeLength:  1,
		},
		DefaultNotifications: Notifications{
			NoItems: "No items to display.",
			Error:   "Oops! Something went wrong! <br> Try refreshing the page or check back soon",
		},
		EventNamespace: ".vp",
		InitClass:      "voogPagination-initialized",
		CachePages:     true,
	}
}

// Validate checks that the options describe a workable widget.
func (o Options) Validate() error {
	if o.PerPage < 1 {
		return fmt.Errorf("perPage must be >= 1 (got %d)", o.PerPage)
	}

	if o.StartingPage < 1 {
		return fmt.Errorf("startingPage must be >= 1 (got %d)", o.StartingPage)
	}

	switch o.ItemType {
	case ItemTypeArticle, ItemTypeElement:
	case ItemTypeComment:
		if o.ParentID == "" {
			return fmt.Errorf("parentId is required for itemType %q", o.ItemType)
		}
	default:
		return fmt.Errorf("unknown itemType %q", o.ItemType)
	}

	switch o.URLFormat {
	case URLFormatFullQuery, URLFormatSingleQueryVar, URLFormatHash:
	default:
		return fmt.Errorf("unknown urlFormat %q", o.URLFormat)
	}

	if o.QueryKey == "" {
		return fmt.Errorf("queryKey is required")
	}

	nav := o.Navigation
	if nav.EdgeLength < 0 {
		return fmt.Errorf("navigation.edgeLength must be >= 0 (got %d)", nav.EdgeLength)
	}
	if min := 2*(nav.EdgeLength+1) + 1; nav.TotalLength < min {
		return fmt.Errorf("navigation.totalLength must be >= %d for edgeLength %d (got %d)",
			min, nav.EdgeLength, nav.TotalLength)
	}

	return nil
}
