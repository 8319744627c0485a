package middleware

import (
	"bytes"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/cache"
	"github.com/kdblegal/kdbweb/internal/telemetry/metrics"
	"github.com/kdblegal/kdbweb/pkg"
)

const cacheHeader = "X-Cache"

type ResponseCacheHandler struct {
	cache   cache.Cache
	metrics *metrics.Manager
}

// NewResponseCacheHandler returns nil when c is nil; the middlewares of a
// nil handler are pass-through.
func NewResponseCacheHandler(c cache.Cache, metricsManager *metrics.Manager) *ResponseCacheHandler {
	if c == nil {
		return nil
	}
	return &ResponseCacheHandler{
		cache:   c,
		metrics: metricsManager,
	}
}

// Cached serves anonymous GET requests from the cache and stores successful
// JSON responses. Requests with an Authorization header always bypass it,
// admins may see content hidden from visitors.
func (h *ResponseCacheHandler) Cached() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if h == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.URL.RequestURI()
			if body, found := h.cache.Get(key); found {
				h.metrics.CounterCacheHits.Inc()
				w.Header().Set(cacheHeader, "HIT")
				pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, body)
				return
			}
			h.metrics.CounterCacheMisses.Inc()

			rec := &bodyRecorder{responseWriter: newResponseWriter(w)}
			w.Header().Set(cacheHeader, "MISS")
			next.ServeHTTP(rec, r)

			if rec.statusCode == http.StatusOK {
				h.cache.Set(key, rec.body.Bytes())
			}
		})
	}
}

// PurgeOnWrite clears the cache after every successful authenticated
// mutating request. Public writes (subscribe, contact) never change cached
// content and are left alone.
func (h *ResponseCacheHandler) PurgeOnWrite() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if h == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodOptions || r.Method == http.MethodHead ||
				r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			resp := newResponseWriter(w)
			next.ServeHTTP(resp, r)
			if resp.statusCode < http.StatusMultipleChoices {
				h.cache.Clear()
			}
		})
	}
}

type bodyRecorder struct {
	*responseWriter
	body bytes.Buffer
}

func (b *bodyRecorder) Write(p []byte) (int, error) {
	b.body.Write(p)
	return b.responseWriter.Write(p)
}
