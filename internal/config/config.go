package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates the client-side settings. All values come from the
// environment; Load never touches any file itself, callers load .env first.
type Config struct {
	// APIBaseURL is the Message Store / auth API root, without trailing slash.
	APIBaseURL string
	// AccessToken is a pre-issued bearer token. When set it takes precedence
	// over sign-in credentials.
	AccessToken string
	// UserID identifies the current user when a pre-issued token is used;
	// with sign-in credentials the id comes from the returned profile.
	UserID string
	// Identifier and Password are the sign-in credentials used when no
	// access token is configured.
	Identifier string
	Password   string
	// HTTPTimeout bounds each API round trip.
	HTTPTimeout time.Duration
}

const (
	defaultBaseURL     = "http://localhost:8001"
	defaultHTTPTimeout = 10 * time.Second
)

// Load reads the TRADHUB_* environment variables.
func Load() (Config, error) {
	timeout := defaultHTTPTimeout
	if raw := strings.TrimSpace(os.Getenv("TRADHUB_HTTP_TIMEOUT")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("config: invalid TRADHUB_HTTP_TIMEOUT value %q", raw)
		}
		timeout = time.Duration(seconds) * time.Second
	}

	return Config{
		APIBaseURL:  getEnvOrDefault("TRADHUB_API_URL", defaultBaseURL),
		AccessToken: strings.TrimSpace(os.Getenv("TRADHUB_ACCESS_TOKEN")),
		UserID:      strings.TrimSpace(os.Getenv("TRADHUB_USER_ID")),
		Identifier:  strings.TrimSpace(os.Getenv("TRADHUB_IDENTIFIER")),
		Password:    os.Getenv("TRADHUB_PASSWORD"),
		HTTPTimeout: timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return strings.TrimRight(value, "/")
	}
	return defaultValue
}
