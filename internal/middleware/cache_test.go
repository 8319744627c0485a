package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kdblegal/kdbweb/internal/cache"
	"github.com/kdblegal/kdbweb/internal/middleware"
	"github.com/kdblegal/kdbweb/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingHandler(calls *atomic.Int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"name":"KDB Legal"}`))
	})
}

func TestResponseCacheHandler_NilCachePassThrough(t *testing.T) {
	h := middleware.NewResponseCacheHandler(nil, metrics.NewTestManager())
	require.Nil(t, h)

	var calls atomic.Int32
	handler := h.Cached()(countingHandler(&calls, http.StatusOK))
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/company", nil))
		assert.Empty(t, rr.Header().Get("X-Cache"))
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestResponseCacheHandler_Cached(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	h := middleware.NewResponseCacheHandler(cache.NewResponseCache(1, time.Minute), metricsManager)

	var calls atomic.Int32
	handler := h.Cached()(countingHandler(&calls, http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/company", nil))
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"name":"KDB Legal"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/company", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "HIT", rr.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"name":"KDB Legal"}`, rr.Body.String())

	// query string is part of the key
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/company?x=1", nil))
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterCacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(metricsManager.CounterCacheMisses))
}

func TestResponseCacheHandler_BypassAndErrors(t *testing.T) {
	h := middleware.NewResponseCacheHandler(cache.NewResponseCache(1, time.Minute), metrics.NewTestManager())

	t.Run("authorized requests bypass", func(t *testing.T) {
		var calls atomic.Int32
		handler := h.Cached()(countingHandler(&calls, http.StatusOK))
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
			req.Header.Set("Authorization", "Bearer token")
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Empty(t, rr.Header().Get("X-Cache"))
		}
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("non 200 responses are not stored", func(t *testing.T) {
		var calls atomic.Int32
		handler := h.Cached()(countingHandler(&calls, http.StatusNotFound))
		for i := 0; i < 2; i++ {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/publications/slug/missing", nil))
			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
		}
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestResponseCacheHandler_PurgeOnWrite(t *testing.T) {
	rc := cache.NewResponseCache(1, time.Minute)
	h := middleware.NewResponseCacheHandler(rc, metrics.NewTestManager())
	purge := h.PurgeOnWrite()

	testCases := []struct {
		name    string
		method  string
		auth    bool
		status  int
		cleared bool
	}{
		{name: "admin write clears", method: http.MethodPut, auth: true, status: http.StatusOK, cleared: true},
		{name: "failed admin write keeps", method: http.MethodPut, auth: true, status: http.StatusBadRequest},
		{name: "public write keeps", method: http.MethodPost, status: http.StatusCreated},
		{name: "read keeps", method: http.MethodGet, auth: true, status: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rc.Set("/api/company", []byte(`{}`))

			var calls atomic.Int32
			req := httptest.NewRequest(tc.method, "/config/company", nil)
			if tc.auth {
				req.Header.Set("Authorization", "Bearer token")
			}
			rr := httptest.NewRecorder()
			purge(countingHandler(&calls, tc.status)).ServeHTTP(rr, req)

			_, found := rc.Get("/api/company")
			assert.Equal(t, tc.cleared, !found)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}
