// Package offline is an asset cache that sits in front of the web client's
// origin. Static assets are served cache-first from a versioned named cache
// so the shell keeps working without network access. API traffic is never
// cached.
package offline

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"time"
)

// ErrCacheMiss is returned when a cache holds nothing for a key.
var ErrCacheMiss = errors.New("cache miss")

// Response is a stored copy of an upstream response.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Serve writes the stored response to w.
func (r *Response) Serve(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = slices.Clone(vs)
	}
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}

// Cache is one named set of stored responses, keyed by request path.
type Cache interface {
	Match(key string) (*Response, error)
	Put(key string, resp *Response) error
	Keys() ([]string, error)
}

// CacheStorage holds the named caches.
type CacheStorage interface {
	// Open returns the named cache, creating it if needed.
	Open(name string) (Cache, error)
	Has(name string) (bool, error)
	// Delete removes the named cache and reports whether it existed.
	Delete(name string) (bool, error)
	// Keys lists cache names.
	Keys() ([]string, error)
}

// ObsoleteCaches returns every name in keys other than current, in order.
func ObsoleteCaches(keys []string, current string) []string {
	var obsolete []string
	for _, k := range keys {
		if k != current {
			obsolete = append(obsolete, k)
		}
	}
	return obsolete
}

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// copyHeader copies end-to-end headers from src to dst.
func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		dst[k] = slices.Clone(vs)
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
}

func newResponse(resp *http.Response, body []byte, now time.Time) *Response {
	header := make(http.Header)
	copyHeader(header, resp.Header)
	return &Response{Status: resp.StatusCode, Header: header, Body: body, StoredAt: now}
}

func writeResponse(w http.ResponseWriter, resp *http.Response) {
	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
