//go:build integration_test || all_tests

package test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/kdblegal/kdbweb/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestAuth_SessionLifecycle() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	superToken := s.superToken(ctx)

	// bootstrap only works once
	resp := doRequest(ctx, t, "POST", "/auth/bootstrap", "", auth.Credentials{
		Username: "another",
		Password: "another-pass-123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(ctx, t, "GET", "/auth/me", superToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me auth.Profile
	resp.decode(t, &me)
	assert.Equal(t, testSuperUsername, me.Username)
	assert.Equal(t, auth.RoleSuper, me.Role)

	// a session past its expiry no longer authenticates
	_, err := s.DB.ExecContext(ctx,
		`UPDATE admin_sessions SET expires_at = now() - interval '1 minute' WHERE token = $1`,
		superToken,
	)
	require.NoError(t, err)
	resp = doRequest(ctx, t, "GET", "/auth/me", superToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	login := doLogin(ctx, t, testSuperUsername, testSuperPassword)
	assert.True(t, login.ExpiresAt.After(time.Now()))
	assert.NotEqual(t, superToken, login.Token)

	resp = doRequest(ctx, t, "GET", "/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(ctx, t, "POST", "/auth/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(ctx, t, "GET", "/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var sessions int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM admin_sessions WHERE token = $1`, login.Token,
	).Scan(&sessions))
	assert.Zero(t, sessions)
}

func (s *IntegrationTestSuite) TestAuth_BadCredentials() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.superToken(ctx)

	cases := map[string]struct {
		creds              auth.Credentials
		expectedStatusCode int
	}{
		"wrong password": {
			creds:              auth.Credentials{Username: testSuperUsername, Password: "wrong-password"},
			expectedStatusCode: http.StatusUnauthorized,
		},
		"unknown user": {
			creds:              auth.Credentials{Username: "nobody", Password: testSuperPassword},
			expectedStatusCode: http.StatusUnauthorized,
		},
		"missing password": {
			creds:              auth.Credentials{Username: testSuperUsername},
			expectedStatusCode: http.StatusBadRequest,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := doRequest(ctx, t, "POST", "/auth/login", "", tc.creds)
			assert.Equal(t, tc.expectedStatusCode, resp.StatusCode, string(resp.Body))
		})
	}
}

func (s *IntegrationTestSuite) TestAuth_RoleGating() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	superToken := s.superToken(ctx)

	resp := doRequest(ctx, t, "POST", "/auth/admins", superToken, auth.CreateAdminParams{
		Username: "editor-one",
		Password: "editor-pass-123",
		Role:     string(auth.RoleEditor),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))
	var created struct {
		ID int `json:"id"`
	}
	resp.decode(t, &created)

	editorToken := doLogin(ctx, t, "editor-one", "editor-pass-123").Token

	// editors manage content, not admins
	resp = doRequest(ctx, t, "GET", "/auth/admins", editorToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doRequest(ctx, t, "POST", "/config/company", editorToken, map[string]string{
		"name":  "KDB Legal",
		"email": "info@kdb.test",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	resp = doRequest(ctx, t, "GET", "/api/company", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), `"name":"KDB Legal"`)

	// deactivating the editor kills their sessions on the next request
	resp = doRequest(ctx, t, "PUT", fmt.Sprintf("/auth/admins/%d", created.ID), superToken, map[string]any{
		"active": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	resp = doRequest(ctx, t, "GET", "/auth/me", editorToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(ctx, t, "DELETE", fmt.Sprintf("/auth/admins/%d", created.ID), superToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
}
