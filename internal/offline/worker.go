package offline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Defaults for a Worker.
const (
	DefaultVersion     = "edge-tts-v1"
	DefaultAPIPrefix   = "/api/"
	DefaultConcurrency = 4

	// CacheStatusHeader reports how a response was served: hit, miss or bypass.
	CacheStatusHeader = "X-Offline-Cache"

	maxCacheableSize = 32 * 1024 * 1024
)

// DefaultManifest is the static shell pre-cached on install.
var DefaultManifest = []string{
	"/",
	"/index.html",
	"/styles.css",
	"/app.js",
	"/manifest.json",
	"/icon-192.png",
	"/icon-512.png",
}

// State is the worker lifecycle: installing, then activating, then active.
type State int32

const (
	StateInstalling State = iota
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Config configures a Worker.
type Config struct {
	// Origin serves the static shell and the API, e.g. "http://localhost:8000".
	Origin string

	// Version names the cache. Changing it replaces every other cache on the
	// next activation.
	Version string

	Manifest    []string
	APIPrefix   string
	Concurrency int
	Client      *http.Client
}

// Stats counts how requests were served.
type Stats struct {
	Hits     int64
	Misses   int64
	Stored   int64
	Bypassed int64
	Offline  int64
}

// Worker is an http.Handler that fronts Origin with a versioned cache.
type Worker struct {
	origin      *url.URL
	version     string
	manifest    []string
	apiPrefix   string
	concurrency int
	client      *http.Client
	storage     CacheStorage
	pages       *Pages

	state atomic.Int32

	hits, misses, stored, bypassed, offline atomic.Int64
}

// NewWorker creates a worker in the installing state.
func NewWorker(cfg Config, storage CacheStorage) (*Worker, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("origin must be an absolute URL, got %q", cfg.Origin)
	}
	if storage == nil {
		return nil, errors.New("cache storage is required")
	}

	w := &Worker{
		origin:      origin,
		version:     cfg.Version,
		manifest:    cfg.Manifest,
		apiPrefix:   cfg.APIPrefix,
		concurrency: cfg.Concurrency,
		client:      cfg.Client,
		storage:     storage,
		pages:       NewPages(),
	}
	if w.version == "" {
		w.version = DefaultVersion
	}
	if w.manifest == nil {
		w.manifest = DefaultManifest
	}
	if w.apiPrefix == "" {
		w.apiPrefix = DefaultAPIPrefix
	}
	if w.concurrency <= 0 {
		w.concurrency = DefaultConcurrency
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}
	w.state.Store(int32(StateInstalling))
	return w, nil
}

// Version returns the cache name the worker serves from.
func (w *Worker) Version() string { return w.version }

// State returns the lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Pages returns the page registry.
func (w *Worker) Pages() *Pages { return w.pages }

// Stats returns request counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Hits:     w.hits.Load(),
		Misses:   w.misses.Load(),
		Stored:   w.stored.Load(),
		Bypassed: w.bypassed.Load(),
		Offline:  w.offline.Load(),
	}
}

// Install pre-caches the manifest, then activates without waiting. An asset
// that cannot be fetched is logged and skipped.
func (w *Worker) Install(ctx context.Context) error {
	w.state.Store(int32(StateInstalling))

	cache, err := w.storage.Open(w.version)
	if err != nil {
		return fmt.Errorf("failed to open cache %s: %w", w.version, err)
	}

	var cached, size atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, path := range w.manifest {
		g.Go(func() error {
			n, err := w.add(gctx, cache, path)
			if err != nil {
				log.Warn("failed to cache asset", "url", path, "error", err)
				return nil
			}
			cached.Add(1)
			size.Add(n)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info("installed", "cache", w.version, "assets", cached.Load(), "manifest", len(w.manifest),
		"size", humanize.Bytes(uint64(size.Load())))

	return w.Activate(ctx)
}

// add fetches one asset and stores it. Only 200 responses are accepted.
func (w *Worker) add(ctx context.Context, cache Cache, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.resolve(&url.URL{Path: path}), nil)
	if err != nil {
		return 0, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bad status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCacheableSize))
	if err != nil {
		return 0, err
	}
	if err := cache.Put(path, newResponse(resp, body, time.Now())); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

// Activate deletes every cache other than the current version and claims
// all known pages.
func (w *Worker) Activate(ctx context.Context) error {
	w.state.Store(int32(StateActivating))

	keys, err := w.storage.Keys()
	if err != nil {
		return fmt.Errorf("failed to list caches: %w", err)
	}
	for _, name := range ObsoleteCaches(keys, w.version) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.storage.Delete(name); err != nil {
			return fmt.Errorf("failed to delete cache %s: %w", name, err)
		}
		log.Info("deleted old cache", "cache", name)
	}

	claimed := w.pages.Claim(w.version)
	w.state.Store(int32(StateActive))
	log.Info("active", "cache", w.version, "claimed", claimed)
	return nil
}

// ServeHTTP handles one request. API requests always go to the network;
// everything else is served cache-first.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w.trackPage(rw, r)

	if strings.Contains(r.URL.Path, w.apiPrefix) {
		w.serveAPI(rw, r)
		return
	}
	w.serveStatic(rw, r)
}

func (w *Worker) serveAPI(rw http.ResponseWriter, r *http.Request) {
	w.bypassed.Add(1)

	resp, err := w.fetch(r)
	if err != nil {
		log.Debug("api request failed", "path", r.URL.Path, "error", err)
		rw.Header().Set("Content-Type", "application/json")
		rw.Header().Set(CacheStatusHeader, "bypass")
		rw.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(rw, `{"error":"Network unavailable"}`)
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	rw.Header().Set(CacheStatusHeader, "bypass")
	writeResponse(rw, resp)
}

func (w *Worker) serveStatic(rw http.ResponseWriter, r *http.Request) {
	key := cacheKey(r.URL)

	// Until activation the worker does not control pages and only relays.
	var cache Cache
	if w.State() == StateActive {
		c, err := w.storage.Open(w.version)
		if err != nil {
			log.Warn("failed to open cache", "cache", w.version, "error", err)
			w.serveOffline(rw)
			return
		}
		cache = c
	}

	if cache != nil && r.Method == http.MethodGet {
		cached, err := cache.Match(key)
		switch {
		case err == nil:
			w.hits.Add(1)
			rw.Header().Set(CacheStatusHeader, "hit")
			cached.Serve(rw)
			return
		case !errors.Is(err, ErrCacheMiss):
			log.Warn("cache lookup failed", "key", key, "error", err)
			w.serveOffline(rw)
			return
		}
	}
	w.misses.Add(1)

	resp, err := w.fetch(r)
	if err != nil {
		log.Debug("network request failed", "path", r.URL.Path, "error", err)
		w.serveOffline(rw)
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	if cache == nil || r.Method != http.MethodGet || resp.StatusCode != http.StatusOK || !w.sameOrigin(resp) {
		rw.Header().Set(CacheStatusHeader, "miss")
		writeResponse(rw, resp)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCacheableSize+1))
	if err != nil {
		log.Debug("failed to read response", "path", r.URL.Path, "error", err)
		w.serveOffline(rw)
		return
	}

	stored := newResponse(resp, body, time.Now())
	if len(body) <= maxCacheableSize {
		if err := cache.Put(key, stored); err != nil {
			log.Warn("failed to store response", "key", key, "error", err)
		} else {
			w.stored.Add(1)
		}
	}

	rw.Header().Set(CacheStatusHeader, "miss")
	stored.Serve(rw)
}

func (w *Worker) serveOffline(rw http.ResponseWriter) {
	w.offline.Add(1)
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(http.StatusServiceUnavailable)
	_, _ = io.WriteString(rw, "Offline")
}

// fetch forwards r to the origin.
func (w *Worker) fetch(r *http.Request) (*http.Response, error) {
	target := w.resolve(&url.URL{Path: r.URL.Path, RawQuery: r.URL.RawQuery})

	var body io.Reader
	if r.Body != nil && r.Body != http.NoBody {
		body = r.Body
	}
	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return nil, err
	}
	copyHeader(out.Header, r.Header)
	out.ContentLength = r.ContentLength

	return w.client.Do(out)
}

func (w *Worker) resolve(ref *url.URL) string {
	return w.origin.ResolveReference(ref).String()
}

// sameOrigin reports whether resp came from the origin after redirects.
func (w *Worker) sameOrigin(resp *http.Response) bool {
	if resp.Request == nil || resp.Request.URL == nil {
		return false
	}
	u := resp.Request.URL
	return u.Scheme == w.origin.Scheme && u.Host == w.origin.Host
}

// trackPage registers page loads so activation can claim them.
func (w *Worker) trackPage(rw http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(ClientCookie); err == nil && c.Value != "" {
		id = c.Value
	} else if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html") {
		id = uuid.NewString()
		http.SetCookie(rw, &http.Cookie{Name: ClientCookie, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	} else {
		return
	}

	controller := ""
	if w.State() == StateActive {
		controller = w.version
	}
	w.pages.Register(id, controller)
}

func cacheKey(u *url.URL) string {
	if u.RawQuery == "" {
		return u.EscapedPath()
	}
	return u.EscapedPath() + "?" + u.RawQuery
}
