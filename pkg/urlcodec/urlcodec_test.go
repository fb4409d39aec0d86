package urlcodec

import (
	"testing"

	"github.com/Sternrassler/voog-pager/pkg/location"
	"github.com/Sternrassler/voog-pager/pkg/options"
)

func TestQueryParam(t *testing.T) {
	tests := []struct {
		name      string
		param     string
		url       string
		want      string
		wantFound bool
	}{
		{"first param", "page", "?page=3&per_page=12", "3", true},
		{"later param", "per_page", "?page=3&per_page=12", "12", true},
		{"absent", "page", "?per_page=12", "", false},
		{"no value", "page", "?page&x=1", "", true},
		{"empty value", "page", "?page=&x=1", "", true},
		{"plus and escapes", "q", "/x?q=hello+w%C3%B6rld", "hello wörld", true},
		{"stops at fragment", "page", "?page=4#top", "4", true},
		{"suffix match is not a match", "page", "?per_page=12", "", false},
		{"regexp metacharacters", "q.element.page_id", "?q.element.page_id=5", "5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := QueryParam(tt.param, tt.url)
			if found != tt.wantFound {
				t.Fatalf("QueryParam() found = %v, want %v", found, tt.wantFound)
			}
			if got != tt.want {
				t.Errorf("QueryParam() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"12", 12, true},
		{"12abc", 12, true},
		{"  7", 7, true},
		{"-3", -3, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseInt(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseInt(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestQueryOf(t *testing.T) {
	if got := QueryOf("/admin/api/articles?page=2&per_page=3"); got != "?page=2&per_page=3" {
		t.Errorf("QueryOf() = %q", got)
	}
	if got := QueryOf("/admin/api/articles"); got != "" {
		t.Errorf("QueryOf() without query = %q, want empty", got)
	}
}

func TestPageFromURL(t *testing.T) {
	if page, ok := PageFromURL("/admin/api/articles?page=5&per_page=3"); !ok || page != 5 {
		t.Errorf("PageFromURL() = %d, %v; want 5, true", page, ok)
	}
	if _, ok := PageFromURL("/admin/api/articles?per_page=3"); ok {
		t.Error("PageFromURL() without page = true")
	}
	if _, ok := PageFromURL("/admin/api/articles?page=0"); ok {
		t.Error("PageFromURL() with page 0 = true")
	}
}

func TestParsePage(t *testing.T) {
	base := options.Defaults()

	single := base
	single.URLFormat = options.URLFormatSingleQueryVar
	single.QueryKey = "p"

	hash := base
	hash.URLFormat = options.URLFormatHash

	hashSuffix := hash
	hashSuffix.HashPrefix = "page-"
	hashSuffix.HashSuffix = "-end"

	hashNoPrefix := hash
	hashNoPrefix.HashPrefix = ""

	tests := []struct {
		name   string
		search string
		hash   string
		opts   options.Options
		want   int
		wantOK bool
	}{
		{"full query", "?page=4&per_page=12", "", base, 4, true},
		{"full query missing", "?per_page=12", "", base, 0, false},
		{"single query var custom key", "?p=6", "", single, 6, true},
		{"single query var wrong key", "?page=6", "", single, 0, false},
		{"hash with prefix", "", "#page-3", hash, 3, true},
		{"hash with suffix", "", "#page-8-end", hashSuffix, 8, true},
		{"hash suffix absent", "", "#page-8", hashSuffix, 8, true},
		{"hash without prefix option", "", "#11", hashNoPrefix, 11, true},
		{"hash prefix absent in fragment", "", "#12", hash, 12, true},
		{"empty hash", "", "", hash, 0, false},
		{"non-numeric", "?page=abc", "", base, 0, false},
		{"zero page", "?page=0", "", base, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePage(tt.search, tt.hash, tt.opts)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParsePage() = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDefaultRequestURL(t *testing.T) {
	article := options.Defaults()

	articleWithParent := article
	articleWithParent.ParentID = "10"
	articleWithParent.QueryVars = "tag=go"

	element := article
	element.ItemType = options.ItemTypeElement
	element.ParentID = "20"
	element.PerPage = 6

	comment := article
	comment.ItemType = options.ItemTypeComment
	comment.ParentID = "30"

	tests := []struct {
		name string
		page int
		opts options.Options
		want string
	}{
		{
			name: "article",
			page: 1,
			opts: article,
			want: "/admin/api/articles?page=1&per_page=12&include_details=true&s=article.published_at.$desc",
		},
		{
			name: "article with parent and query vars",
			page: 2,
			opts: articleWithParent,
			want: "/admin/api/articles?page=2&per_page=12&page_id=10&include_details=true&s=article.published_at.$desc&tag=go",
		},
		{
			name: "element",
			page: 3,
			opts: element,
			want: "/admin/api/elements?page=3&per_page=6&include_values=true&q.element.page_id=20",
		},
		{
			name: "comment",
			page: 1,
			opts: comment,
			want: "/admin/api/articles/30/comments?page=1&per_page=12&q.comment.spam.$eq=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRequestURL(tt.page, tt.opts); got != tt.want {
				t.Errorf("DefaultRequestURL() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	formats := []options.URLFormat{
		options.URLFormatFullQuery,
		options.URLFormatSingleQueryVar,
		options.URLFormatHash,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			opts := options.Defaults()
			opts.URLFormat = format
			opts.HashSuffix = "/"

			for page := 1; page <= 25; page++ {
				query := QueryOf(DefaultRequestURL(page, opts))
				loc := location.NewMemory("/blog")
				Apply(loc, BrowserURL(query, page, opts), true)

				got, ok := ParsePage(loc.Search(), loc.Hash(), opts)
				if !ok || got != page {
					t.Fatalf("page %d round-tripped to %d (ok=%v) via %q", page, got, ok, loc.URL())
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	opts := options.Defaults()

	t.Run("push state", func(t *testing.T) {
		loc := location.NewMemory("/blog")
		Apply(loc, BrowserURL("?page=2&per_page=12", 2, opts), true)
		if got := loc.URL(); got != "/blog?page=2&per_page=12" {
			t.Errorf("URL() = %q", got)
		}
		if loc.Reloads() != 0 {
			t.Error("push state caused a reload")
		}
	})

	t.Run("full navigation fallback", func(t *testing.T) {
		loc := location.NewMemory("/blog", location.WithoutPushState())
		single := opts
		single.URLFormat = options.URLFormatSingleQueryVar
		Apply(loc, BrowserURL("?page=2&per_page=12", 2, single), false)
		if got := loc.URL(); got != "/blog?page=2" {
			t.Errorf("URL() = %q", got)
		}
		if loc.Reloads() != 1 {
			t.Errorf("Reloads() = %d, want 1", loc.Reloads())
		}
	})

	t.Run("hash", func(t *testing.T) {
		loc := location.NewMemory("/blog?x=1")
		hash := opts
		hash.URLFormat = options.URLFormatHash
		Apply(loc, BrowserURL("", 4, hash), false)
		if got := loc.URL(); got != "/blog?x=1#page-4" {
			t.Errorf("URL() = %q", got)
		}
	})
}

func TestEndpoint(t *testing.T) {
	opts := options.Defaults()
	if got := Endpoint(opts); got != ArticlesEndpoint {
		t.Errorf("article endpoint = %q", got)
	}
	opts.ItemType = options.ItemTypeElement
	if got := Endpoint(opts); got != ElementsEndpoint {
		t.Errorf("element endpoint = %q", got)
	}
	opts.ItemType = options.ItemTypeComment
	opts.ParentID = "9"
	if got := Endpoint(opts); got != "/admin/api/articles/9/comments" {
		t.Errorf("comment endpoint = %q", got)
	}
}
