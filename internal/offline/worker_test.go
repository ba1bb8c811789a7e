package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
)

// origin is a fake upstream that counts requests per path.
type origin struct {
	srv  *httptest.Server
	hits atomic.Int64
}

func newOrigin(t *testing.T, files map[string]string) *origin {
	t.Helper()
	o := &origin{}
	o.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.hits.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(o.srv.Close)
	return o
}

// unreachableOrigin returns the URL of a server that is no longer listening.
func unreachableOrigin() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func newActiveWorker(t *testing.T, originURL string, storage CacheStorage) *Worker {
	t.Helper()
	w, err := NewWorker(Config{Origin: originURL, Version: "v2", Manifest: []string{}}, storage)
	if err != nil {
		t.Fatalf("NewWorker failed: %v", err)
	}
	if err := w.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	return w
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// TestActivateDeletesObsoleteCaches tests that activation keeps only the
// current version and claims open pages.
func TestActivateDeletesObsoleteCaches(t *testing.T) {
	storage := NewMemoryStorage()
	for _, name := range []string{"v1", "v2"} {
		if _, err := storage.Open(name); err != nil {
			t.Fatal(err)
		}
	}

	w, err := NewWorker(Config{Origin: "http://localhost:8000", Version: "v2"}, storage)
	if err != nil {
		t.Fatal(err)
	}
	w.Pages().Register("page-1", "v1")
	w.Pages().Register("page-2", "")

	if w.State() != StateInstalling {
		t.Errorf("Initial state = %s, want installing", w.State())
	}
	if err := w.Activate(context.Background()); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	keys, _ := storage.Keys()
	if !slices.Equal(keys, []string{"v2"}) {
		t.Errorf("Caches after activation = %v, want [v2]", keys)
	}
	for _, id := range []string{"page-1", "page-2"} {
		if c, _ := w.Pages().Controller(id); c != "v2" {
			t.Errorf("Page %s controlled by %q, want v2", id, c)
		}
	}
	if w.State() != StateActive {
		t.Errorf("State = %s, want active", w.State())
	}
}

// TestObsoleteCaches tests the set difference used on activation.
func TestObsoleteCaches(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		current string
		want    []string
	}{
		{"none", nil, "v2", nil},
		{"only current", []string{"v2"}, "v2", nil},
		{"old and current", []string{"v1", "v2"}, "v2", []string{"v1"}},
		{"current missing", []string{"v1", "other"}, "v3", []string{"v1", "other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObsoleteCaches(tt.keys, tt.current); !slices.Equal(got, tt.want) {
				t.Errorf("ObsoleteCaches() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAPIUnreachable tests that API requests never fall back to the cache.
func TestAPIUnreachable(t *testing.T) {
	storage := NewMemoryStorage()
	w := newActiveWorker(t, unreachableOrigin(), storage)

	cache, _ := storage.Open("v2")
	_ = cache.Put("/api/voices", &Response{Status: http.StatusOK, Body: []byte("stale")})

	rec := get(t, w, "/api/voices")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"Network unavailable"}` {
		t.Errorf("Body = %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Stats().Hits != 0 {
		t.Error("API request must not consult the cache")
	}
}

// TestAPIPassThrough tests that API responses are relayed and not stored.
func TestAPIPassThrough(t *testing.T) {
	o := newOrigin(t, map[string]string{"/api/voices": `[]`})
	storage := NewMemoryStorage()
	w := newActiveWorker(t, o.srv.URL, storage)

	rec := get(t, w, "/api/voices")
	if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
		t.Errorf("Unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(CacheStatusHeader) != "bypass" {
		t.Errorf("Cache status = %q", rec.Header().Get(CacheStatusHeader))
	}

	cache, _ := storage.Open("v2")
	if keys, _ := cache.Keys(); len(keys) != 0 {
		t.Errorf("API response was cached: %v", keys)
	}
}

// TestCacheFirst tests that a cached asset is served without the network.
func TestCacheFirst(t *testing.T) {
	o := newOrigin(t, map[string]string{"/app.js": "fresh"})
	storage := NewMemoryStorage()
	w := newActiveWorker(t, o.srv.URL, storage)

	cache, _ := storage.Open("v2")
	_ = cache.Put("/app.js", &Response{Status: http.StatusOK, Header: http.Header{"Content-Type": {"text/javascript"}}, Body: []byte("cached")})

	rec := get(t, w, "/app.js")
	if rec.Body.String() != "cached" {
		t.Errorf("Body = %q, want cached", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/javascript" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if o.hits.Load() != 0 {
		t.Errorf("Origin was contacted %d times", o.hits.Load())
	}
}

// TestStoreOnRead tests that a successful miss is stored and later served offline.
func TestStoreOnRead(t *testing.T) {
	o := newOrigin(t, map[string]string{"/styles.css": "body{}"})
	storage := NewMemoryStorage()
	w := newActiveWorker(t, o.srv.URL, storage)

	rec := get(t, w, "/styles.css")
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Fatalf("Unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(CacheStatusHeader) != "miss" {
		t.Errorf("Cache status = %q", rec.Header().Get(CacheStatusHeader))
	}

	o.srv.Close()

	rec = get(t, w, "/styles.css")
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Errorf("Offline response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(CacheStatusHeader) != "hit" {
		t.Errorf("Cache status = %q", rec.Header().Get(CacheStatusHeader))
	}
	if s := w.Stats(); s.Stored != 1 || s.Hits != 1 {
		t.Errorf("Unexpected stats %+v", s)
	}
}

// TestNoStoreForFailures tests that non-200 responses are relayed uncached.
func TestNoStoreForFailures(t *testing.T) {
	o := newOrigin(t, map[string]string{})
	storage := NewMemoryStorage()
	w := newActiveWorker(t, o.srv.URL, storage)

	rec := get(t, w, "/missing.png")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}

	cache, _ := storage.Open("v2")
	if _, err := cache.Match("/missing.png"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("404 response was cached")
	}
}

// TestNoStoreCrossOrigin tests that a redirect to another host is not cached.
func TestNoStoreCrossOrigin(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "elsewhere")
	}))
	defer other.Close()

	o := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL+"/font.woff", http.StatusFound)
	}))
	defer o.Close()

	storage := NewMemoryStorage()
	w := newActiveWorker(t, o.URL, storage)

	rec := get(t, w, "/font.woff")
	if rec.Code != http.StatusOK || rec.Body.String() != "elsewhere" {
		t.Errorf("Unexpected response %d %q", rec.Code, rec.Body.String())
	}

	cache, _ := storage.Open("v2")
	if keys, _ := cache.Keys(); len(keys) != 0 {
		t.Errorf("Cross-origin response was cached: %v", keys)
	}
}

// TestOfflineFallback tests the response when cache and network both fail.
func TestOfflineFallback(t *testing.T) {
	w := newActiveWorker(t, unreachableOrigin(), NewMemoryStorage())

	rec := get(t, w, "/index.html")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", rec.Code)
	}
	if rec.Body.String() != "Offline" {
		t.Errorf("Body = %q, want Offline", rec.Body.String())
	}
}

// TestInstallToleratesFailures tests that missing assets do not abort install.
func TestInstallToleratesFailures(t *testing.T) {
	o := newOrigin(t, map[string]string{
		"/":           "<html>",
		"/index.html": "<html>",
		"/app.js":     "js",
	})

	storage := NewMemoryStorage()
	if _, err := storage.Open("edge-tts-v0"); err != nil {
		t.Fatal(err)
	}

	w, err := NewWorker(Config{Origin: o.srv.URL}, storage)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if w.State() != StateActive {
		t.Errorf("State = %s, want active", w.State())
	}

	cache, _ := storage.Open(DefaultVersion)
	keys, _ := cache.Keys()
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"/", "/app.js", "/index.html"}) {
		t.Errorf("Cached keys = %v", keys)
	}

	names, _ := storage.Keys()
	if !slices.Equal(names, []string{DefaultVersion}) {
		t.Errorf("Caches = %v, want only %s", names, DefaultVersion)
	}
}

// TestPagesClaimedOnActivate tests that pages seen before activation are
// claimed and later pages start controlled.
func TestPagesClaimedOnActivate(t *testing.T) {
	o := newOrigin(t, map[string]string{"/": "<html>"})
	w, err := NewWorker(Config{Origin: o.srv.URL, Version: "v2", Manifest: []string{}}, NewMemoryStorage())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	w.ServeHTTP(rec, req)

	ids := w.Pages().IDs()
	if len(ids) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(ids))
	}
	if c, _ := w.Pages().Controller(ids[0]); c != "" {
		t.Errorf("Page controlled before activation by %q", c)
	}
	if rec.Result().Cookies()[0].Name != ClientCookie {
		t.Error("Expected client cookie")
	}

	if err := w.Install(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c, _ := w.Pages().Controller(ids[0]); c != "v2" {
		t.Errorf("Page controller = %q, want v2", c)
	}
}

// TestNewWorkerValidation tests origin validation.
func TestNewWorkerValidation(t *testing.T) {
	if _, err := NewWorker(Config{Origin: "localhost"}, NewMemoryStorage()); err == nil {
		t.Error("Expected error for relative origin")
	}
	if _, err := NewWorker(Config{Origin: "http://localhost:8000"}, nil); err == nil {
		t.Error("Expected error for missing storage")
	}
}
