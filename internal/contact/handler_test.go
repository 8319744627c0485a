package contact

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kdblegal/kdbweb/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const adminToken = "admin-token"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func adminGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+adminToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func passThrough(next http.Handler) http.Handler { return next }

func hidden(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("User-Agent", "kdb-test")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func newTestRouter(t *testing.T, pageGate mux.MiddlewareFunc) (*mux.Router, *repoMock, *metrics.Manager) {
	t.Helper()
	repo := NewMockRepo()
	m := metrics.NewTestManager()
	r := mux.NewRouter()
	NewHandler(repo, m).SetupRoutes(r, adminGuard, pageGate, passThrough)
	return r, repo, m
}

func TestHandleSend(t *testing.T) {
	router, repo, m := newTestRouter(t, passThrough)

	body := `{"name": " Ana ", "email": "Ana@Example.com", "phone": "+56 9 1234", "subject": "Consulta", "message": " Hola "}`
	rr := doRequest(router, "POST", "/api/contact", "", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"message":"message received"}`, rr.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterContactMessages))

	messages, err := repo.List(t.Context(), DefaultListLimit)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	msg := messages[0]
	assert.Equal(t, "Ana", msg.Name)
	assert.Equal(t, "ana@example.com", msg.Email)
	assert.Equal(t, "Hola", msg.Message)
	assert.Equal(t, "10.1.2.3", msg.IP)
	assert.Equal(t, "kdb-test", msg.UserAgent)
	assert.Equal(t, StatusNew, msg.Status)
}

func TestHandleSend_Invalid(t *testing.T) {
	router, _, m := newTestRouter(t, passThrough)

	testCases := []struct {
		name   string
		body   string
		errMsg string
	}{
		{name: "missing name", body: `{"email": "a@b.co", "message": "hi"}`, errMsg: "name, email and message are required"},
		{name: "blank message", body: `{"name": "A", "email": "a@b.co", "message": "   "}`, errMsg: "name, email and message are required"},
		{name: "bad email", body: `{"name": "A", "email": "nope", "message": "hi"}`, errMsg: "invalid email"},
		{
			name:   "too long",
			body:   fmt.Sprintf(`{"name": "A", "email": "a@b.co", "message": %q}`, strings.Repeat("x", MaxMessageLength+1)),
			errMsg: "message is too long",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(router, "POST", "/api/contact", "", tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"`+tc.errMsg+`"}`, rr.Body.String())
		})
	}
	assert.Zero(t, testutil.ToFloat64(m.CounterContactMessages))
}

func TestHandleSend_MaxLengthAccepted(t *testing.T) {
	router, _, _ := newTestRouter(t, passThrough)
	body := fmt.Sprintf(`{"name": "A", "email": "a@b.co", "message": %q}`, strings.Repeat("ñ", MaxMessageLength))
	assert.Equal(t, http.StatusCreated, doRequest(router, "POST", "/api/contact", "", body).Code)
}

func TestHandleSend_PageDisabled(t *testing.T) {
	router, repo, _ := newTestRouter(t, hidden)

	rr := doRequest(router, "POST", "/api/contact", "", `{"name": "A", "email": "a@b.co", "message": "hi"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	messages, err := repo.List(t.Context(), DefaultListLimit)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestHandleList(t *testing.T) {
	router, repo, _ := newTestRouter(t, passThrough)
	for i := 0; i < 5; i++ {
		_, err := repo.Save(t.Context(), &Message{Name: fmt.Sprintf("n%d", i), Email: "a@b.co", Message: "m", Status: StatusNew})
		require.NoError(t, err)
	}

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "GET", "/api/contact", "", "").Code)

	testCases := []struct {
		query    string
		expected int
	}{
		{query: "", expected: 5},
		{query: "?limit=2", expected: 2},
		{query: "?limit=0", expected: 1},
		{query: "?limit=abc", expected: 5},
	}
	for _, tc := range testCases {
		rr := doRequest(router, "GET", "/api/contact"+tc.query, adminToken, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var messages []map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &messages))
		require.Len(t, messages, tc.expected, tc.query)
		assert.Equal(t, "n4", messages[0]["name"])
		_, hasIP := messages[0]["ip"]
		assert.False(t, hasIP)
	}
}

func TestHandleDelete(t *testing.T) {
	router, repo, _ := newTestRouter(t, passThrough)
	id, err := repo.Save(t.Context(), &Message{Name: "A", Email: "a@b.co", Message: "m"})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/contact/%d", id)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "DELETE", path, "", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "DELETE", path, adminToken, "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(router, "DELETE", path, adminToken, "").Code)
}
