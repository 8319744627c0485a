//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
	"strings"

	"github.com/kdblegal/kdbweb/internal/contact"
	"github.com/kdblegal/kdbweb/internal/subscriptions"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestPublicWrites_Subscribe() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.superToken(ctx)
	email := strings.ToLower(gofakeit.Email())

	resp := doRequest(ctx, t, "POST", "/subscribe", "", map[string]any{
		"email":          "  " + strings.ToUpper(email) + " ",
		"accepted_terms": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))

	// stored once, normalized
	var stored int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM subscriptions WHERE email = $1`, email,
	).Scan(&stored))
	assert.Equal(t, 1, stored)

	resp = doRequest(ctx, t, "GET", "/api/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []subscriptions.Subscription
	resp.decode(t, &listed)
	require.NotEmpty(t, listed)
	assert.Equal(t, email, listed[0].Email)

	resp = doRequest(ctx, t, "POST", "/subscribe", "", map[string]any{
		"email":          email,
		"accepted_terms": false,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestPublicWrites_ContactRateLimited() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.superToken(ctx)

	send := func() response {
		return doRequest(ctx, t, "POST", "/api/contact", "", contact.SendParams{
			Name:    gofakeit.Name(),
			Email:   gofakeit.Email(),
			Message: gofakeit.Sentence(12),
		})
	}

	for i := 0; i < testPublicWritesPerMin; i++ {
		resp := send()
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))
	}

	resp := send()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var stored int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM contact_messages`).Scan(&stored))
	assert.Equal(t, testPublicWritesPerMin, stored)

	resp = doRequest(ctx, t, "GET", "/api/contact", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var messages []contact.Message
	resp.decode(t, &messages)
	assert.Len(t, messages, testPublicWritesPerMin)
	assert.NotContains(t, string(resp.Body), "kdbweb-integration-test")
}
