package cache

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// pageResponse builds a Voog listing response as the client receives it.
func pageResponse(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func within(t *testing.T, got, want time.Time) {
	t.Helper()
	if diff := got.Sub(want); diff < -2*time.Second || diff > 2*time.Second {
		t.Errorf("got %v, want approximately %v (diff %v)", got, want, diff)
	}
}

func TestResponseToEntry_KeepsPaginationHeaders(t *testing.T) {
	lastModified := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	resp := pageResponse(http.StatusOK, http.Header{
		"Etag":          []string{`"articles-2-10-25"`},
		"Last-Modified": []string{lastModified.Format(http.TimeFormat)},
		"Cache-Control": []string{"max-age=120"},
		"X-Total-Pages": []string{"3"},
		"Link":          []string{`<https://example.voog.com/admin/api/articles?page=3>; rel="next"`},
	}, `[{"id":11},{"id":12}]`)

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	if string(entry.Data) != `[{"id":11},{"id":12}]` {
		t.Errorf("Data = %s", entry.Data)
	}
	if entry.ETag != `"articles-2-10-25"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastModified) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastModified)
	}
	if got := entry.Headers.Get("X-Total-Pages"); got != "3" {
		t.Errorf("X-Total-Pages = %q, want 3", got)
	}
	if entry.Headers.Get("Link") == "" {
		t.Error("Link header not stored")
	}
	within(t, entry.Expires, time.Now().Add(2*time.Minute))

	// The caller still reads the body after caching it
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `[{"id":11},{"id":12}]` {
		t.Errorf("restored body = %q", body)
	}

	// Stored headers are a copy
	resp.Header.Set("X-Total-Pages", "9")
	if got := entry.Headers.Get("X-Total-Pages"); got != "3" {
		t.Errorf("entry headers alias the response: %q", got)
	}
}

func TestResponseToEntry_NilResponse(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Fatal("expected error for nil response")
	}
}

func TestExpiresAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		headers http.Header
		want    time.Time
	}{
		{
			name:    "no caching headers uses default",
			headers: http.Header{},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "expires header",
			headers: http.Header{"Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}},
			want:    now.Add(time.Hour),
		},
		{
			name:    "invalid expires uses default",
			headers: http.Header{"Expires": []string{"not a valid date"}},
			want:    now.Add(DefaultTTL),
		},
		{
			name:    "expires in the past is stale",
			headers: http.Header{"Expires": []string{now.Add(-time.Hour).Format(http.TimeFormat)}},
			want:    now,
		},
		{
			name:    "max-age wins over expires",
			headers: http.Header{"Cache-Control": []string{"public, max-age=60"}, "Expires": []string{now.Add(time.Hour).Format(http.TimeFormat)}},
			want:    now.Add(60 * time.Second),
		},
		{
			name:    "max-age zero",
			headers: http.Header{"Cache-Control": []string{"max-age=0"}},
			want:    now,
		},
		{
			name:    "quoted max-age",
			headers: http.Header{"Cache-Control": []string{`max-age="30"`}},
			want:    now.Add(30 * time.Second),
		},
		{
			name:    "no-cache is immediately stale",
			headers: http.Header{"Cache-Control": []string{"No-Cache, max-age=600"}},
			want:    now,
		},
		{
			name:    "malformed max-age falls back to default",
			headers: http.Header{"Cache-Control": []string{"max-age=soon"}},
			want:    now.Add(DefaultTTL),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			within(t, ExpiresAt(tt.headers), tt.want)
		})
	}
}

func TestShouldMakeConditionalRequest(t *testing.T) {
	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{name: "nil entry", entry: nil, want: false},
		{name: "etag", entry: &Entry{ETag: `"articles-1-10-25"`}, want: true},
		{name: "last-modified", entry: &Entry{LastModified: time.Now()}, want: true},
		{name: "no validators", entry: &Entry{Data: []byte("[]")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.want {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	modified := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		entry        *Entry
		wantETag     string
		wantModSince string
	}{
		{
			name:     "etag",
			entry:    &Entry{ETag: `"abc123"`},
			wantETag: `"abc123"`,
		},
		{
			name:         "last-modified",
			entry:        &Entry{LastModified: modified},
			wantModSince: "Sun, 01 Jan 2023 12:00:00 GMT",
		},
		{
			name:     "etag preferred",
			entry:    &Entry{ETag: `"abc123"`, LastModified: modified},
			wantETag: `"abc123"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "https://example.voog.com/admin/api/articles?page=1", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get("If-None-Match"); got != tt.wantETag {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantETag)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantModSince {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantModSince)
			}
		})
	}

	// nil inputs are ignored
	AddConditionalHeaders(nil, &Entry{ETag: "test"})
	AddConditionalHeaders(&http.Request{Header: http.Header{}}, nil)
}

func TestCacheable(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		want bool
	}{
		{name: "nil", resp: nil, want: false},
		{name: "ok", resp: pageResponse(http.StatusOK, nil, "[]"), want: true},
		{name: "no-cache is stored for revalidation", resp: pageResponse(http.StatusOK, http.Header{"Cache-Control": []string{"no-cache"}}, "[]"), want: true},
		{name: "not found", resp: pageResponse(http.StatusNotFound, nil, ""), want: false},
		{name: "server error", resp: pageResponse(http.StatusInternalServerError, nil, ""), want: false},
		{name: "no-store", resp: pageResponse(http.StatusOK, http.Header{"Cache-Control": []string{"private, no-store"}}, "[]"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cacheable(tt.resp); got != tt.want {
				t.Errorf("Cacheable() = %v, want %v", got, tt.want)
			}
		})
	}
}
