package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	studentsPath = "/api/v1/students"
	loginPath    = "/api/v1/auth/login"
	registerPath = "/api/v1/auth/register"
	refreshPath  = "/api/v1/auth/refresh"
	logoutPath   = "/api/v1/auth/logout"
	mePath       = "/api/v1/auth/me"

	// refreshCookieName is the cookie the auth service issues at login and
	// expects back on /auth/refresh.
	refreshCookieName = "refresh_token"
)

// Client talks to the student-records API on behalf of one signed-in session.
// It attaches the bearer token to every request and, on a 401, performs
// exactly one cookie-based refresh before replaying the failed request.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	token        string
	refreshToken string

	// onTokenRefresh is invoked with the new access token after a successful
	// refresh, so the owning session can persist it.
	onTokenRefresh func(token string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the access token attached to outgoing requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRefreshToken sets the refresh credential replayed on /auth/refresh.
func WithRefreshToken(token string) Option {
	return func(c *Client) { c.refreshToken = token }
}

// New creates a Client for the records API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the access token currently attached to requests.
func (c *Client) Token() string { return c.token }

// SetToken replaces the access token attached to requests.
func (c *Client) SetToken(token string) { c.token = token }

// RefreshToken returns the refresh credential captured at login.
func (c *Client) RefreshToken() string { return c.refreshToken }

// OnTokenRefresh registers a callback invoked after a successful refresh.
func (c *Client) OnTokenRefresh(fn func(token string)) { c.onTokenRefresh = fn }

// do sends a JSON request and decodes the response into out (when non-nil).
// On a 401 it attempts one refresh and replays the request once; a second 401
// or a failed refresh clears the token and yields ErrSessionExpired.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	resp, data, err := c.send(ctx, method, path, payload, "application/json")
	if err != nil {
		return &Error{Message: DefaultErrorMessage}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		newToken, refreshErr := c.Refresh(ctx)
		if refreshErr != nil {
			c.token = ""
			return ErrSessionExpired
		}
		c.token = newToken
		if c.onTokenRefresh != nil {
			c.onTokenRefresh(newToken)
		}

		// Replay the original request once with the refreshed token. There is
		// no further refresh: a 401 here means the new token was rejected too.
		resp, data, err = c.send(ctx, method, path, payload, "application/json")
		if err != nil {
			return &Error{Message: DefaultErrorMessage}
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.token = ""
			return ErrSessionExpired
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeJSON(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs one HTTP round trip and drains the body. The bearer token and
// refresh cookie are attached when present.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType string) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: c.refreshToken})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp, data, nil
}
