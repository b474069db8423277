package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"tradhub-messaging/internal/domain"
)

// ErrNoSession is returned when no credential is available: neither a static
// token nor sign-in credentials were configured. Callers must treat it as an
// authorization failure and never attempt the API call.
var ErrNoSession = errors.New("session: no credentials configured")

// TokenSource supplies the bearer credential attached to Message Store API
// calls. Consumers should depend on this interface rather than the concrete
// *Client so they remain testable without a live auth provider.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Credentials are the sign-in inputs accepted by the auth provider. Identifier
// is an email or phone number.
type Credentials struct {
	Identifier string
	Password   string
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// signInResponse is the minimal response shape of the sign-in endpoint.
// ExpiresIn is in seconds; providers that omit it get the default TTL.
type signInResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int            `json:"expires_in"`
	Profile      domain.Profile `json:"profile"`
}

// HTTPStatusError captures non-2xx auth provider responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("session: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

const (
	defaultTokenTTL = 55 * time.Minute
	expirySkew      = 30 * time.Second
)

// Client signs in against the auth provider and caches the issued bearer token
// until shortly before expiry. The cache keeps API calls from paying a sign-in
// round trip each time while still renewing expired credentials transparently.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	tokenTTL   time.Duration

	mu      sync.Mutex
	token   string
	expiry  time.Time
	profile domain.Profile
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenTTL overrides the fallback token lifetime used when the provider
// response does not carry expires_in.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.tokenTTL = ttl
	}
}

// NewClient creates a session client for the auth provider at baseURL.
func NewClient(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("session: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		creds:      creds,
		tokenTTL:   defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SignIn authenticates with the configured credentials and caches the issued
// token. It returns the signed-in user's profile.
func (c *Client) SignIn(ctx context.Context) (domain.Profile, error) {
	if c.creds.Identifier == "" || c.creds.Password == "" {
		return domain.Profile{}, ErrNoSession
	}

	body, err := json.Marshal(signInRequest{
		Identifier: c.creds.Identifier,
		Password:   c.creds.Password,
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("session: marshal sign-in request: %w", err)
	}

	url := c.baseURL + "/api/auth/signin"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("session: create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("session: sign-in request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return domain.Profile{}, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("session: read sign-in response: %w", err)
	}

	var payload signInResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Profile{}, fmt.Errorf("session: decode sign-in response: %w", err)
	}
	if payload.AccessToken == "" {
		return domain.Profile{}, errors.New("session: sign-in response carries no access token")
	}

	ttl := c.tokenTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}

	c.mu.Lock()
	c.token = payload.AccessToken
	c.expiry = time.Now().Add(ttl)
	c.profile = payload.Profile
	c.mu.Unlock()

	return payload.Profile, nil
}

// AccessToken returns the cached bearer token, signing in again when the
// cached one is missing or about to expire.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiry := c.token, c.expiry
	c.mu.Unlock()

	if token != "" && time.Until(expiry) > expirySkew {
		return token, nil
	}

	if _, err := c.SignIn(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	token = c.token
	c.mu.Unlock()
	return token, nil
}

// Profile returns the profile from the most recent sign-in, if any.
func (c *Client) Profile() (domain.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile, c.profile.ID != ""
}

// StaticTokenSource wraps a pre-issued bearer token. An empty token yields
// ErrNoSession on every call.
type StaticTokenSource string

func (s StaticTokenSource) AccessToken(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrNoSession
	}
	return string(s), nil
}
