// Package session keeps each browser's authentication state: the access
// token issued by the records API, the refresh credential captured at login,
// and a snapshot of the signed-in user. Everything rides a signed cookie, so
// the console itself stays stateless.
package session

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"student_console/internal/api"
	"student_console/internal/model"
)

const (
	keyToken   = "access_token"
	keyRefresh = "refresh_token"
	keyUser    = "user"
	keyNext    = "redirect_after_login"

	// DefaultLanding is where a fresh login goes when no protected route was
	// captured beforehand.
	DefaultLanding = "/dashboard"
)

// Flash is a one-shot notification queued for the next rendered page.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

func init() {
	gob.Register(Flash{})
}

// Current is the restored authentication state for one request. A nil User
// means the request is unauthenticated.
type Current struct {
	User  *model.User
	Token string
}

// IsAuthenticated reports whether the session holds a validated identity.
// The token and user are written and cleared together, so checking both is
// belt-and-braces rather than a real branch.
func (s *Current) IsAuthenticated() bool {
	return s != nil && s.User != nil && s.Token != ""
}

// Manager owns the session cookie and the auth lifecycle around it.
type Manager struct {
	store     sessions.Store
	name      string
	newClient func(opts ...api.Option) *api.Client
}

// NewManager creates a Manager. newClient builds a records-API client; it is
// called once per operation so every request gets a client bound to the
// session's own credentials.
func NewManager(secret []byte, name string, maxAge int, newClient func(opts ...api.Option) *api.Client) *Manager {
	store := sessions.NewCookieStore(secret)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.MaxAge = maxAge
	return &Manager{store: store, name: name, newClient: newClient}
}

// Client returns a records-API client bound to the given restored session.
// Tokens minted by the 401-refresh path are written back into the session so
// the cookie never falls behind the client.
func (m *Manager) Client(c *gin.Context, cur *Current) *api.Client {
	sess := m.session(c)
	refresh, _ := sess.Values[keyRefresh].(string)
	client := m.newClient(api.WithToken(cur.Token), api.WithRefreshToken(refresh))
	client.OnTokenRefresh(func(token string) {
		cur.Token = token
		sess.Values[keyToken] = token
		m.save(c, sess)
	})
	return client
}

// Restore re-establishes the session for a request. A persisted token is
// re-validated against /auth/me; a token the server no longer accepts is
// silently dropped, leaving the request unauthenticated. Restore never fails
// loudly: it is a background precondition check, not a user action.
func (m *Manager) Restore(c *gin.Context) *Current {
	sess := m.session(c)

	token, _ := sess.Values[keyToken].(string)
	if token == "" {
		return &Current{}
	}

	refresh, _ := sess.Values[keyRefresh].(string)
	client := m.newClient(api.WithToken(token), api.WithRefreshToken(refresh))

	user, err := client.CurrentUser(c.Request.Context(), token)
	if err != nil {
		log.Printf("Session restore failed, clearing stale token: %v", err)
		m.clearValues(sess)
		m.save(c, sess)
		return &Current{}
	}

	// Snapshot the identity. It is written for observability but never read
	// back as authority; the /auth/me call above is the authority.
	if encoded, err := json.Marshal(user); err == nil {
		sess.Values[keyUser] = string(encoded)
		m.save(c, sess)
	}

	return &Current{User: user, Token: client.Token()}
}

// Login authenticates against the records API and persists the resulting
// token, refresh credential, and user snapshot in one save.
func (m *Manager) Login(ctx context.Context, c *gin.Context, username, password string) (*model.User, error) {
	client := m.newClient()
	result, err := client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	sess := m.session(c)
	sess.Values[keyToken] = result.AccessToken
	sess.Values[keyRefresh] = client.RefreshToken()
	if encoded, err := json.Marshal(result.User); err == nil {
		sess.Values[keyUser] = string(encoded)
	}
	m.save(c, sess)

	return &result.User, nil
}

// Register creates the account, then signs in with the same credentials. If
// either step fails the error is returned and no session state is written.
func (m *Manager) Register(ctx context.Context, c *gin.Context, req model.RegisterRequest) (*model.User, error) {
	client := m.newClient()
	if err := client.Register(ctx, req); err != nil {
		return nil, err
	}
	return m.Login(ctx, c, req.Username, req.Password)
}

// Logout tells the records API to drop the server-side session (best effort)
// and unconditionally clears the local one.
func (m *Manager) Logout(c *gin.Context) {
	sess := m.session(c)

	if token, _ := sess.Values[keyToken].(string); token != "" {
		refresh, _ := sess.Values[keyRefresh].(string)
		client := m.newClient(api.WithToken(token), api.WithRefreshToken(refresh))
		if err := client.Logout(c.Request.Context()); err != nil {
			log.Printf("Upstream logout failed (session cleared anyway): %v", err)
		}
	}

	m.clearValues(sess)
	sess.Options.MaxAge = -1
	m.save(c, sess)
}

// Clear drops the local session without contacting the records API. Used
// when the API itself declared the session expired.
func (m *Manager) Clear(c *gin.Context) {
	sess := m.session(c)
	m.clearValues(sess)
	m.save(c, sess)
}

// CaptureNext remembers the URL an unauthenticated request was aiming for so
// the post-login redirect can land there.
func (m *Manager) CaptureNext(c *gin.Context) {
	sess := m.session(c)
	sess.Values[keyNext] = c.Request.URL.RequestURI()
	m.save(c, sess)
}

// ConsumeNext pops the captured post-login target, falling back to the
// default landing page.
func (m *Manager) ConsumeNext(c *gin.Context) string {
	sess := m.session(c)
	next, _ := sess.Values[keyNext].(string)
	if next == "" {
		return DefaultLanding
	}
	delete(sess.Values, keyNext)
	m.save(c, sess)
	return next
}

// Flash queues a one-shot notification for the next rendered page.
func (m *Manager) Flash(c *gin.Context, kind, message string) {
	sess := m.session(c)
	sess.AddFlash(Flash{Kind: kind, Message: message})
	m.save(c, sess)
}

// Flashes drains the queued notifications.
func (m *Manager) Flashes(c *gin.Context) []Flash {
	sess := m.session(c)
	raw := sess.Flashes()
	if len(raw) > 0 {
		m.save(c, sess)
	}
	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

// clearValues removes the token, refresh credential, and user snapshot
// together. This is the single teardown path: no caller may clear one
// without the others.
func (m *Manager) clearValues(sess *sessions.Session) {
	delete(sess.Values, keyToken)
	delete(sess.Values, keyRefresh)
	delete(sess.Values, keyUser)
}

func (m *Manager) session(c *gin.Context) *sessions.Session {
	sess, _ := m.store.Get(c.Request, m.name)
	return sess
}

func (m *Manager) save(c *gin.Context, sess *sessions.Session) {
	if err := sess.Save(c.Request, c.Writer); err != nil {
		log.Printf("Failed to save session: %v", err)
	}
}
