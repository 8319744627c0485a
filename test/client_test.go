//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/kdblegal/kdbweb/internal/auth"

	"github.com/stretchr/testify/require"
)

type response struct {
	StatusCode int
	Body       []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), string(r.Body))
}

func doRequest(ctx context.Context, t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "kdbweb-integration-test")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return response{StatusCode: resp.StatusCode, Body: respBytes}
}

func doLogin(ctx context.Context, t *testing.T, username, password string) auth.LoginResult {
	t.Helper()

	resp := doRequest(ctx, t, "POST", "/auth/login", "", auth.Credentials{
		Username: username,
		Password: password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))

	var res auth.LoginResult
	resp.decode(t, &res)
	require.NotEmpty(t, res.Token)
	return res
}

// superToken creates the first admin on the first call and logs in.
func (s *IntegrationTestSuite) superToken(ctx context.Context) string {
	t := s.T()
	t.Helper()

	var admins int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM admin_users`).Scan(&admins))
	if admins == 0 {
		resp := doRequest(ctx, t, "POST", "/auth/bootstrap", "", auth.Credentials{
			Username: testSuperUsername,
			Password: testSuperPassword,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(resp.Body))
	}

	return doLogin(ctx, t, testSuperUsername, testSuperPassword).Token
}
