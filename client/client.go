// Package client is the Go SDK for the contact-message service. It mirrors
// the three surfaces of the web console: the public intake form, the admin
// inbox, and the admin detail view, including their confirmation gates and
// failure taxonomy.
package client

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds every request the SDK makes. A timeout is treated
// like any other network failure: terminal for the attempt, never retried
// automatically.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotConfirmed is returned when a destructive or outward-facing
	// action was invoked without the confirmation callback approving it.
	// No request is issued in that case.
	ErrNotConfirmed = errors.New("action not confirmed")

	// ErrNotFound is returned when the requested message does not exist,
	// so callers can render a dedicated not-found view.
	ErrNotFound = errors.New("message not found")
)

// ConfirmFunc asks the operator to approve an action. Returning false
// cancels it before any network traffic.
type ConfirmFunc func(prompt string) bool

// Config configures a Client. Token is the admin bearer token; it is held
// explicitly here rather than read from ambient storage, and may be swapped
// with SetToken at login/logout.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
	}
}

// SetToken replaces the bearer token (set at login, cleared at logout).
// Safe to call while other requests are in flight.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// APIError is a non-2xx response decoded into the service's error shape.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

func (c *Client) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := c.bearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// decodeError turns a non-2xx response into an APIError, preferring the
// server-supplied message over the status text.
func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.ErrorCode
		apiErr.Message = body.Message
	}
	return apiErr
}
