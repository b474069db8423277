package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func signInHandler(t *testing.T, calls *int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*calls++
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/signin", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]string
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "amina@tradhub.test", req["identifier"])
		require.Equal(t, "secret", req["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "tok-1",
			"refresh_token": "ref-1",
			"profile": {"id": "u1", "full_name": "Amina Acheteur"}
		}`))
	}
}

func testCreds() Credentials {
	return Credentials{Identifier: "amina@tradhub.test", Password: "secret"}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyBaseURL(t *testing.T) {
	_, err := NewClient("  ", testCreds())
	require.Error(t, err)
	require.Contains(t, err.Error(), "base URL")
}

// ---------------------------------------------------------------------------
// SignIn
// ---------------------------------------------------------------------------

func TestSignIn_HappyPath(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(signInHandler(t, &calls))
	defer srv.Close()

	c, err := NewClient(srv.URL, testCreds())
	require.NoError(t, err)

	profile, err := c.SignIn(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u1", profile.ID)
	require.Equal(t, "Amina Acheteur", profile.DisplayName)

	cached, ok := c.Profile()
	require.True(t, ok)
	require.Equal(t, profile, cached)
}

func TestSignIn_NoCredentials(t *testing.T) {
	c, err := NewClient("http://localhost:8001", Credentials{})
	require.NoError(t, err)
	_, err = c.SignIn(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSignIn_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"detail":"invalid credentials"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, testCreds())
	require.NoError(t, err)
	_, err = c.SignIn(context.Background())
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 400, statusErr.HTTPStatusCode())
}

func TestSignIn_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"refresh_token":"ref-1","profile":{"id":"u1"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, testCreds())
	require.NoError(t, err)
	_, err = c.SignIn(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no access token")
}

func TestSignIn_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, testCreds())
	require.NoError(t, err)
	_, err = c.SignIn(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode sign-in response")
}

// ---------------------------------------------------------------------------
// AccessToken: caching behaviour
// ---------------------------------------------------------------------------

func TestAccessToken_SignsInOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(signInHandler(t, &calls))
	defer srv.Close()

	c, err := NewClient(srv.URL, testCreds())
	require.NoError(t, err)

	token, err := c.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)
	require.Equal(t, 1, calls)

	// subsequent calls must reuse the cached token
	_, _ = c.AccessToken(context.Background())
	_, _ = c.AccessToken(context.Background())
	require.Equal(t, 1, calls, "the provider must only be hit once while the token is valid")
}

func TestAccessToken_RenewsExpiredToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(signInHandler(t, &calls))
	defer srv.Close()

	// A TTL below the expiry skew makes every cached token count as expired.
	c, err := NewClient(srv.URL, testCreds(), WithTokenTTL(time.Millisecond))
	require.NoError(t, err)

	_, err = c.AccessToken(context.Background())
	require.NoError(t, err)
	_, err = c.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestAccessToken_NoCredentials(t *testing.T) {
	c, err := NewClient("http://localhost:8001", Credentials{})
	require.NoError(t, err)
	_, err = c.AccessToken(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

// ---------------------------------------------------------------------------
// StaticTokenSource
// ---------------------------------------------------------------------------

func TestStaticTokenSource(t *testing.T) {
	token, err := StaticTokenSource("tok-static").AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-static", token)

	_, err = StaticTokenSource("").AccessToken(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}
