package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/voog-pager/internal/testutil"
	"github.com/Sternrassler/voog-pager/pkg/cache"
	"github.com/Sternrassler/voog-pager/pkg/client"
	"github.com/Sternrassler/voog-pager/pkg/options"
	"github.com/Sternrassler/voog-pager/pkg/pagination"
)

const articlesPath = "/admin/api/articles"

// testData pages by ?page=N so request URLs stay short.
const testData = `{"perPage":10,"urlFormat":"singleQueryVar"}`

func setupMock(t *testing.T, items int) *testutil.MockVoog {
	t.Helper()
	mock := testutil.NewMockVoog()
	t.Cleanup(mock.Close)
	mock.SetItems(articlesPath, testutil.Articles(items))
	return mock
}

func testConfig(mock *testutil.MockVoog) *appConfig {
	cfg := loadConfig()
	cfg.BaseURL = mock.URL()
	cfg.Data = testData
	cfg.RedisURL = ""
	cfg.Timeout = 5 * time.Second
	return cfg
}

func newTestRouter(t *testing.T, mock *testutil.MockVoog) http.Handler {
	t.Helper()

	cfg := testConfig(mock)
	opts, err := cfg.resolveOptions(nil)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	voog, err := cfg.newClient(cache.NewMemoryStore(cache.DefaultRetention))
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	return newRouter(voog, opts, cfg.Timeout)
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestPageHandler(t *testing.T) {
	mock := setupMock(t, 25)
	router := newTestRouter(t, mock)

	tests := []struct {
		name       string
		path       string
		setup      func()
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "starting page",
			path:       "/blog",
			wantStatus: http.StatusOK,
			wantBody:   []string{"<!DOCTYPE html>", "Page 1 of 3", "Article 1<", "st-active"},
		},
		{
			name:       "page from query",
			path:       "/blog?page=3",
			wantStatus: http.StatusOK,
			wantBody:   []string{"Page 3 of 3", "Article 21", "Article 25"},
		},
		{
			name:       "server error renders notification",
			path:       "/blog?page=2",
			setup:      func() { mock.SetResponse(articlesPath, testutil.NewServerErrorResponse()) },
			wantStatus: http.StatusBadGateway,
			wantBody:   []string{"notification-error", "Something went wrong"},
		},
		{
			name:       "missing listing",
			path:       "/blog",
			setup:      func() { mock.SetResponse(articlesPath, testutil.NewNotFoundResponse()) },
			wantStatus: http.StatusNotFound,
			wantBody:   []string{"notification-error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.SetHandler(articlesPath, nil)
			if tt.setup != nil {
				tt.setup()
			}

			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			resp := w.Result()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Expected text/html, got %q", ct)
			}
			for _, want := range tt.wantBody {
				if !strings.Contains(string(body), want) {
					t.Errorf("Expected body to contain %q", want)
				}
			}
		})
	}
}

func TestPageHandler_RejectsPost(t *testing.T) {
	mock := setupMock(t, 5)
	router := newTestRouter(t, mock)

	req := httptest.NewRequest("POST", "/blog", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("Expected no upstream requests, got %d", mock.GetRequestCount())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mock := setupMock(t, 25)
	router := newTestRouter(t, mock)

	// Render once so the labelled series exist
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/blog", nil))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	for _, name := range []string{"voog_requests_total", "voog_pagination_fetches_total"} {
		if !strings.Contains(bodyStr, name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}
}

func TestRunPage(t *testing.T) {
	mock := setupMock(t, 25)
	cfg := testConfig(mock)

	t.Run("page from url", func(t *testing.T) {
		var out bytes.Buffer
		if err := runPage(context.Background(), cfg, "/blog?page=3", 0, &out); err != nil {
			t.Fatalf("runPage: %v", err)
		}
		if !strings.Contains(out.String(), "Article 21") {
			t.Error("Expected page 3 items")
		}
	})

	t.Run("goto", func(t *testing.T) {
		var out bytes.Buffer
		if err := runPage(context.Background(), cfg, "/blog", 2, &out); err != nil {
			t.Fatalf("runPage: %v", err)
		}
		if !strings.Contains(out.String(), "Article 11") || strings.Contains(out.String(), "Article 1<") {
			t.Error("Expected only page 2 items")
		}
	})

	t.Run("failure", func(t *testing.T) {
		mock.SetResponse(articlesPath, testutil.NewServerErrorResponse())
		defer mock.SetHandler(articlesPath, nil)

		var out bytes.Buffer
		err := runPage(context.Background(), cfg, "/blog", 0, &out)
		if err == nil {
			t.Fatal("Expected error, got nil")
		}
		if client.ClassOf(err) != client.ErrorClassServer {
			t.Errorf("Expected server error class, got %q", client.ClassOf(err))
		}
		if out.Len() != 0 {
			t.Error("Expected no output on failure")
		}
	})
}

func TestRenderPage_Location(t *testing.T) {
	mock := setupMock(t, 25)
	cfg := testConfig(mock)
	opts, err := cfg.resolveOptions(nil)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}
	voog, err := cfg.newClient(nil)
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}

	page, err := renderPage(context.Background(), voog, opts, "/blog?tag=go", 3)
	if err != nil {
		t.Fatalf("renderPage: %v", err)
	}
	if page.Location != "/blog?page=3" {
		t.Errorf("Expected location /blog?page=3, got %s", page.Location)
	}
	if page.State.CurrentPage != 3 || page.State.TotalPages != 3 {
		t.Errorf("Unexpected state %+v", page.State)
	}
	if page.Failure != nil {
		t.Errorf("Unexpected failure %v", page.Failure.Err)
	}
}

func TestRenderPage_FailureThenRecovery(t *testing.T) {
	calls := 0
	fetcher := pagination.FetcherFunc(func(ctx context.Context, requestURL string, useCache bool) (*client.Page, error) {
		calls++
		if calls == 1 {
			return nil, &client.FetchError{StatusCode: http.StatusServiceUnavailable, Class: client.ErrorClassServer, Message: "unavailable"}
		}
		return &client.Page{Items: []json.RawMessage{json.RawMessage(`{"title":"Recovered"}`)}, TotalPages: 2}, nil
	})

	opts, err := options.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	page, err := renderPage(context.Background(), fetcher, opts, "/", 2)
	if err != nil {
		t.Fatalf("renderPage: %v", err)
	}
	if page.Failure != nil {
		t.Errorf("Expected failure cleared by the later render, got %v", page.Failure.Err)
	}
	if !strings.Contains(string(page.HTML), "Recovered") {
		t.Error("Expected recovered page content")
	}
}

func TestRunExport(t *testing.T) {
	mock := setupMock(t, 25)
	cfg := testConfig(mock)

	t.Run("ndjson", func(t *testing.T) {
		var out bytes.Buffer
		if err := runExport(context.Background(), cfg, pagination.DefaultBatchConfig(), "ndjson", &out); err != nil {
			t.Fatalf("runExport: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 25 {
			t.Fatalf("Expected 25 lines, got %d", len(lines))
		}
		if !strings.Contains(lines[0], `"Article 1"`) || !strings.Contains(lines[24], `"Article 25"`) {
			t.Error("Expected items in page order")
		}
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		batch := pagination.DefaultBatchConfig()
		batch.MaxPages = 2
		if err := runExport(context.Background(), cfg, batch, "json", &out); err != nil {
			t.Fatalf("runExport: %v", err)
		}

		var items []map[string]any
		if err := json.Unmarshal(out.Bytes(), &items); err != nil {
			t.Fatalf("Output is not a JSON array: %v", err)
		}
		if len(items) != 20 {
			t.Errorf("Expected 20 items, got %d", len(items))
		}
	})
}

func TestWriteItems_InvalidItem(t *testing.T) {
	var out bytes.Buffer
	err := writeItems(&out, []json.RawMessage{json.RawMessage(`{"ok":true}`), json.RawMessage(`{broken`)}, "ndjson")
	if err == nil {
		t.Fatal("Expected error for invalid item")
	}
	if !strings.Contains(err.Error(), "item 1") {
		t.Errorf("Expected error to name item 1, got %v", err)
	}
}

func TestResolveOptions_Layers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	settings := "perPage: 5\nitemType: element\nnavigation:\n  edgeLength: 2\n"
	if err := os.WriteFile(path, []byte(settings), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := &appConfig{SettingsFile: path, Data: `{"perPage":7}`}
	opts, err := cfg.resolveOptions(options.Layer{"hashPrefix": "p"})
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}

	if opts.PerPage != 7 {
		t.Errorf("Expected data attribute to win, got perPage %d", opts.PerPage)
	}
	if opts.ItemType != options.ItemTypeElement {
		t.Errorf("Expected itemType element, got %s", opts.ItemType)
	}
	if opts.Navigation.EdgeLength != 2 || opts.Navigation.TotalLength != 9 {
		t.Errorf("Expected merged navigation, got %+v", opts.Navigation)
	}
	if opts.HashPrefix != "p" {
		t.Errorf("Expected override hashPrefix, got %q", opts.HashPrefix)
	}

	cfg.Data = `{not json`
	if _, err := cfg.resolveOptions(nil); err == nil {
		t.Error("Expected error for invalid data attribute")
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	cfg := &appConfig{Timeout: time.Second}
	if _, err := cfg.newClient(nil); err == nil {
		t.Error("Expected error without base url")
	}
}

func TestNewStore_Memory(t *testing.T) {
	cfg := &appConfig{}
	store, closeStore, err := cfg.newStore(context.Background())
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*cache.MemoryStore); !ok {
		t.Errorf("Expected *cache.MemoryStore, got %T", store)
	}
}

func TestNewStore_BadRedisURL(t *testing.T) {
	cfg := &appConfig{RedisURL: "http://localhost:6379"}
	if _, _, err := cfg.newStore(context.Background()); err == nil {
		t.Error("Expected error for unparsable redis url")
	}
}

func TestRootCommand_Page(t *testing.T) {
	mock := setupMock(t, 25)

	root := newRootCommand(&appConfig{Timeout: 5 * time.Second})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"page", "/blog?page=2",
		"--base-url", mock.URL(),
		"--data", testData,
		"--log-level", "disabled",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "Article 11") {
		t.Error("Expected page 2 items in output")
	}
}

func TestExportCommand_UnknownFormat(t *testing.T) {
	root := newRootCommand(&appConfig{Timeout: time.Second})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"export", "--format", "xml", "--base-url", "http://localhost"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("Expected unknown format error, got %v", err)
	}
}
