//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"

	"github.com/kdblegal/kdbweb/internal/kdbweb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) setPageVisible(ctx context.Context, token, page string, visible bool) {
	t := s.T()
	t.Helper()
	resp := doRequest(ctx, t, "POST", "/config/pages", token, map[string]any{
		"pages": map[string]bool{page: visible},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
}

func (s *IntegrationTestSuite) TestContent_PageVisibility() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.superToken(ctx)

	resp := doRequest(ctx, t, "POST", "/api/kdbweb", token, kdbweb.ReplaceParams{
		Entries: []kdbweb.Entry{
			{Slug: "contratos", Title: "Contratos", ContentHTML: "<p>hola</p><script>alert(1)</script>"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	resp = doRequest(ctx, t, "GET", "/api/kdbweb/contratos", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry kdbweb.Entry
	resp.decode(t, &entry)
	assert.Equal(t, "<p>hola</p>", entry.ContentHTML)

	s.setPageVisible(ctx, token, "kdbweb", false)
	defer s.setPageVisible(ctx, token, "kdbweb", true)

	resp = doRequest(ctx, t, "GET", "/api/pages", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var visibility struct {
		Pages map[string]bool `json:"pages"`
	}
	resp.decode(t, &visibility)
	assert.False(t, visibility.Pages["kdbweb"])
	assert.True(t, visibility.Pages["home"])

	// hidden for visitors, previewable by admins
	resp = doRequest(ctx, t, "GET", "/api/kdbweb", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = doRequest(ctx, t, "GET", "/api/kdbweb/contratos", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(ctx, t, "GET", "/api/kdbweb", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cards []kdbweb.Card
	resp.decode(t, &cards)
	require.Len(t, cards, 1)
	assert.Equal(t, "contratos", cards[0].Slug)
}

func (s *IntegrationTestSuite) TestContent_DefaultsSeeded() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp := doRequest(ctx, t, "GET", "/api/page/home", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	assert.NotEqual(t, "{}", string(resp.Body))

	resp = doRequest(ctx, t, "GET", "/api/page/unknown-page", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var settings int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM page_settings`).Scan(&settings))
	assert.Positive(t, settings)
}
