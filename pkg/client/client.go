// Package client is a Go client for the CRM REST API.
//
// It mirrors the browser client: every GET carries a cache-busting query
// parameter and no-cache headers, the bearer token is held by the client and
// dropped when the server answers 401, and server error messages surface as
// *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Strob0t/crm/internal/domain/user"
)

// DefaultTimeout bounds every request unless overridden with WithTimeout.
const DefaultTimeout = 15 * time.Second

// ErrTimeout is returned when a request exceeds the client timeout.
var ErrTimeout = errors.New("request timed out")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm api error %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of err when it is an *APIError, else 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the CRM API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its own Timeout applies
// unless WithTimeout is also given; hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout, in any order relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken starts the client with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL (for example
// "http://localhost:5000/api"). Trailing slashes are ignored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Token returns the current bearer token, or "" when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken signs the client out.
func (c *Client) ClearToken() { c.SetToken("") }

// --- Auth ---

// Register creates an account and keeps the issued token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*user.AuthResponse, error) {
	var resp user.AuthResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, false, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Login authenticates and keeps the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*user.AuthResponse, error) {
	var resp user.AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, false, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var resp struct {
		User *user.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Health reports whether the API and its database are up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, false, nil)
}

// --- Transport ---

func (c *Client) url(path, method string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if method == http.MethodGet {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "_=" + strconv.FormatInt(c.now().UnixMilli(), 10)
	}
	return u
}

// do sends one request and decodes a JSON response into out (when non-nil).
// auth controls whether the bearer token is sent and cleared on 401.
func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, method), bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	if token := c.Token(); auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && auth {
			c.ClearToken()
		}
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if !isJSON(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage prefers the server's {"error"} or {"message"} field, then the
// raw body, then the status text.
func errorMessage(resp *http.Response, data []byte) string {
	if isJSON(resp.Header.Get("Content-Type")) {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil {
			if body.Error != "" {
				return body.Error
			}
			if body.Message != "" {
				return body.Message
			}
		}
	} else if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "Request failed"
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
