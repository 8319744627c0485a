package publications

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kdblegal/kdbweb/internal/auth"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-token"

type tokenAuthenticator struct{}

func (tokenAuthenticator) Authenticate(_ context.Context, token string) (*auth.Admin, error) {
	if token != adminToken {
		return nil, auth.ErrUnauthorized
	}
	return &auth.Admin{ID: 1, Username: "editor", Role: auth.RoleEditor, Active: true}, nil
}

func adminGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.BearerToken(r) != adminToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pageSwitch stands in for the page gate, with the page toggled by tests.
type pageSwitch struct {
	disabled bool
}

func (p *pageSwitch) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.disabled && auth.BearerToken(r) != adminToken {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T) (*mux.Router, *pageSwitch) {
	t.Helper()
	service, _ := newTestService(t)
	handler := NewHandler(service, tokenAuthenticator{})
	sw := &pageSwitch{}
	r := mux.NewRouter()
	handler.SetupRoutes(r, adminGuard, sw.gate)
	return r, sw
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_PublicationsLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, "POST", "/api/categories", "", `{"name":"General"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, "POST", "/api/categories", adminToken, `{"name":"General"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var category Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &category))

	body := fmt.Sprintf(`{"title":"Hola","slug":"hola","content_html":"<p>x</p>","category_id":"%d","published_at":"2024-02-01","active":"on"}`, category.ID)
	rr = doRequest(router, "POST", "/api/publications", adminToken, body)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created idResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Positive(t, created.ID)

	rr = doRequest(router, "POST", "/api/publications", adminToken, body)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(router, "GET", fmt.Sprintf("/api/publications/%d", created.ID), "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "2024-02-01", got["published_at"])
	assert.Equal(t, "General", got["category"])

	rr = doRequest(router, "GET", "/api/publications/slug/hola", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, "PUT", fmt.Sprintf("/api/publications/%d", created.ID), adminToken,
		fmt.Sprintf(`{"title":"Hola","slug":"hola","category_id":%d,"active":false}`, category.ID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, "GET", "/api/publications/slug/hola", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(router, "GET", "/api/publications", "", "")
	assert.JSONEq(t, `[]`, rr.Body.String())

	// ?all needs a valid admin token
	rr = doRequest(router, "GET", "/api/publications?all", "", "")
	assert.JSONEq(t, `[]`, rr.Body.String())
	rr = doRequest(router, "GET", "/api/publications?all=1", adminToken, "")
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rr = doRequest(router, "DELETE", fmt.Sprintf("/api/publications/%d", created.ID), adminToken, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(router, "DELETE", fmt.Sprintf("/api/publications/%d", created.ID), adminToken, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = doRequest(router, "PUT", "/api/publications/999", adminToken,
		fmt.Sprintf(`{"title":"x","slug":"x","category_id":%d}`, category.ID))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_ValidationErrors(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, "POST", "/api/publications", adminToken, `{"title":"x","slug":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"category is required for a publication"}`, rr.Body.String())

	rr = doRequest(router, "POST", "/api/publications", adminToken, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, "POST", "/api/categories", adminToken, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(router, "DELETE", "/api/categories/42", adminToken, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"category not found"}`, rr.Body.String())
}

func TestHandler_PageGate(t *testing.T) {
	router, sw := newTestRouter(t)
	sw.disabled = true

	for _, path := range []string{"/api/publications", "/api/categories", "/api/publications/1", "/api/publications/slug/x"} {
		rr := doRequest(router, "GET", path, "", "")
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}

	rr := doRequest(router, "GET", "/api/categories", adminToken, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}
