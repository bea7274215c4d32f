package api

import (
	"context"
	"net/http"
	"net/url"

	"student_console/internal/model"
)

// LoginResult is the decoded /auth/login payload.
type LoginResult struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        model.User `json:"user"`
}

// Login exchanges credentials for an access token. Credentials go over a
// form-encoded body; the refresh cookie set by the server is captured for
// later /auth/refresh calls. On success the client holds the new token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	resp, data, err := c.send(ctx, http.MethodPost, loginPath, []byte(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, &Error{Message: DefaultErrorMessage}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, data)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == refreshCookieName {
			c.refreshToken = cookie.Value
		}
	}

	var result LoginResult
	if err := decodeJSON(data, &result); err != nil {
		return nil, err
	}
	c.token = result.AccessToken
	return &result, nil
}

// Register creates a new account. Establishing a session afterwards is the
// caller's job (by convention it logs in with the same credentials).
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) error {
	return c.do(ctx, http.MethodPost, registerPath, req, nil)
}

// Refresh trades the refresh cookie for a new access token. It does not go
// through do: refresh is the recovery path and must never recurse.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	resp, data, err := c.send(ctx, http.MethodPost, refreshPath, nil, "")
	if err != nil {
		return "", &Error{Message: DefaultErrorMessage}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp.StatusCode, data)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeJSON(data, &result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// Logout invalidates the server-side session. A 401 here is irrelevant (the
// session is being discarded anyway), so this skips the refresh machinery.
func (c *Client) Logout(ctx context.Context) error {
	resp, data, err := c.send(ctx, http.MethodPost, logoutPath, nil, "")
	if err != nil {
		return &Error{Message: DefaultErrorMessage}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	return nil
}

// CurrentUser validates an access token and returns the identity behind it.
// Used at session restore to re-check a persisted token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	body := map[string]string{"access_token": token}
	var user model.User
	if err := c.do(ctx, http.MethodPost, mePath, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
