package msgstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradhub-messaging/internal/domain"
)

// TokenSource supplies the bearer credential for each API call. Satisfied by
// session.Client and session.StaticTokenSource.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// sendRequest is the request shape of the message creation endpoint. The
// server assigns id and created_at.
type sendRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	ProductID   string `json:"product_id,omitempty"`
}

// HTTPStatusError captures non-2xx Message Store responses with status-aware
// context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("msgstore: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused Message Store API client. Every request carries the
// bearer credential from the injected TokenSource; a token failure
// short-circuits before any network call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Message Store client for the API at baseURL.
func NewClient(tokens TokenSource, baseURL string, opts ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("msgstore: token source must not be nil")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("msgstore: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListConversations fetches one summary row per counterpart the user has
// exchanged messages with.
func (c *Client) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/api/messages", nil)
	if err != nil {
		return nil, err
	}

	var payload []domain.ConversationSummary
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("msgstore: decode conversation list: %w", err)
	}
	return payload, nil
}

// GetThread fetches the full message history with one counterpart, ascending
// by creation time.
func (c *Client) GetThread(ctx context.Context, counterpartID string) ([]domain.Message, error) {
	counterpartID = strings.TrimSpace(counterpartID)
	if counterpartID == "" {
		return nil, errors.New("msgstore: counterpart id must not be empty")
	}

	endpoint := c.baseURL + "/api/messages/" + url.PathEscape(counterpartID)
	raw, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload []domain.Message
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("msgstore: decode thread: %w", err)
	}
	return payload, nil
}

// SendMessage creates one message addressed to recipientID and returns the
// stored record with the server-assigned id and timestamp.
func (c *Client) SendMessage(ctx context.Context, recipientID, content, productID string) (domain.Message, error) {
	if strings.TrimSpace(recipientID) == "" {
		return domain.Message{}, errors.New("msgstore: recipient id must not be empty")
	}

	body, err := json.Marshal(sendRequest{
		RecipientID: recipientID,
		Content:     content,
		ProductID:   productID,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("msgstore: marshal send request: %w", err)
	}

	raw, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/messages", body)
	if err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("msgstore: decode send response: %w", err)
	}
	return msg, nil
}

// doJSON issues one authenticated request and returns the raw response body.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("msgstore: resolve access token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("msgstore: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Correlation-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("msgstore: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("msgstore: read response body: %w", err)
	}
	return buf, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
