package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student_console/internal/api"
	"student_console/internal/model"
	"student_console/internal/stub"
)

const (
	testSecret      = "0123456789abcdef0123456789abcdef"
	testSessionName = "console_session"
)

func newUpstream(t *testing.T) (*stub.Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	records := stub.New("upstream-secret", time.Hour)
	require.NoError(t, records.SeedUser(model.User{
		Username: "admin1",
		Email:    "admin1@example.com",
		FullName: "Admin One",
		Role:     model.RoleAdmin,
	}, "secret1"))

	server := httptest.NewServer(records.Router())
	t.Cleanup(server.Close)
	return records, server
}

func newManager(baseURL string) *Manager {
	newClient := func(opts ...api.Option) *api.Client {
		return api.New(baseURL, opts...)
	}
	return NewManager([]byte(testSecret), testSessionName, 3600, newClient)
}

func makeContext(t *testing.T, target string, cookies []*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range cookies {
		c.Request.AddCookie(cookie)
	}
	return c, w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == testSessionName {
			found = cookie
		}
	}
	require.NotNil(t, found, "expected a %s cookie to be set", testSessionName)
	return found
}

func TestLoginThenRestore(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, w := makeContext(t, "/login", nil)
	user, err := mgr.Login(context.Background(), c, "admin1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)

	// A fresh request carrying the session cookie restores the identity by
	// re-validating the persisted token against /auth/me.
	c2, _ := makeContext(t, "/dashboard", []*http.Cookie{sessionCookie(t, w)})
	cur := mgr.Restore(c2)

	require.True(t, cur.IsAuthenticated())
	assert.Equal(t, "admin1", cur.User.Username)
	assert.Equal(t, "Admin One", cur.User.FullName)
	assert.NotEmpty(t, cur.Token)
}

func TestLogin_BadCredentialsLeavesNoSession(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, w := makeContext(t, "/login", nil)
	_, err := mgr.Login(context.Background(), c, "admin1", "wrong-password")

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Incorrect username or password", apiErr.Message)

	for _, cookie := range w.Result().Cookies() {
		assert.NotEqual(t, testSessionName, cookie.Name, "failed login must not persist a session")
	}
}

func TestRestore_NoTokenIsUnauthenticated(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, _ := makeContext(t, "/dashboard", nil)
	cur := mgr.Restore(c)

	assert.False(t, cur.IsAuthenticated())
}

func TestRestore_InvalidTokenClearsSession(t *testing.T) {
	// Log in against one upstream, then restore against another signing with
	// a different secret: the token is invalid there and the refresh
	// credential unknown, so restore must silently clear the session.
	_, serverA := newUpstream(t)

	other := stub.New("some-other-secret", time.Hour)
	serverB := httptest.NewServer(other.Router())
	t.Cleanup(serverB.Close)

	mgrA := newManager(serverA.URL)
	mgrB := newManager(serverB.URL)

	c, w := makeContext(t, "/login", nil)
	_, err := mgrA.Login(context.Background(), c, "admin1", "secret1")
	require.NoError(t, err)
	loginCookie := sessionCookie(t, w)

	c2, w2 := makeContext(t, "/dashboard", []*http.Cookie{loginCookie})
	cur := mgrB.Restore(c2)
	assert.False(t, cur.IsAuthenticated())

	// The stale token was removed: even the original upstream (where the
	// token is still valid) now sees an empty session.
	cleared := sessionCookie(t, w2)
	c3, _ := makeContext(t, "/dashboard", []*http.Cookie{cleared})
	cur = mgrA.Restore(c3)
	assert.False(t, cur.IsAuthenticated())
}

func TestRegisterChainsIntoLogin(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, w := makeContext(t, "/register", nil)
	user, err := mgr.Register(context.Background(), c, model.RegisterRequest{
		Username: "newuser",
		Email:    "new@example.com",
		FullName: "New User",
		Role:     model.RoleUser,
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "newuser", user.Username)

	c2, _ := makeContext(t, "/dashboard", []*http.Cookie{sessionCookie(t, w)})
	cur := mgr.Restore(c2)
	require.True(t, cur.IsAuthenticated())
	assert.Equal(t, "newuser", cur.User.Username)
}

func TestRegister_DuplicateUsernameLeavesNoSession(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, w := makeContext(t, "/register", nil)
	_, err := mgr.Register(context.Background(), c, model.RegisterRequest{
		Username: "admin1",
		Email:    "again@example.com",
		FullName: "Clone",
		Role:     model.RoleUser,
		Password: "hunter22",
	})

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Username already registered", apiErr.Message)

	for _, cookie := range w.Result().Cookies() {
		assert.NotEqual(t, testSessionName, cookie.Name)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, w := makeContext(t, "/login", nil)
	_, err := mgr.Login(context.Background(), c, "admin1", "secret1")
	require.NoError(t, err)
	loginCookie := sessionCookie(t, w)

	c2, w2 := makeContext(t, "/logout", []*http.Cookie{loginCookie})
	mgr.Logout(c2)

	cleared := sessionCookie(t, w2)
	assert.Less(t, cleared.MaxAge, 0, "logout must expire the session cookie")

	c3, _ := makeContext(t, "/dashboard", []*http.Cookie{cleared})
	cur := mgr.Restore(c3)
	assert.False(t, cur.IsAuthenticated())
}

func TestCaptureAndConsumeNext(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, w := makeContext(t, "/dashboard?modal=add", nil)
	mgr.CaptureNext(c)

	c2, w2 := makeContext(t, "/login", []*http.Cookie{sessionCookie(t, w)})
	assert.Equal(t, "/dashboard?modal=add", mgr.ConsumeNext(c2))

	// Consumed: the next lookup falls back to the default landing page.
	c3, _ := makeContext(t, "/login", []*http.Cookie{sessionCookie(t, w2)})
	assert.Equal(t, DefaultLanding, mgr.ConsumeNext(c3))
}

func TestFlashesAreOneShot(t *testing.T) {
	_, server := newUpstream(t)
	mgr := newManager(server.URL)

	c, w := makeContext(t, "/dashboard", nil)
	mgr.Flash(c, "success", "Student added successfully")

	c2, w2 := makeContext(t, "/dashboard", []*http.Cookie{sessionCookie(t, w)})
	flashes := mgr.Flashes(c2)
	require.Len(t, flashes, 1)
	assert.Equal(t, "success", flashes[0].Kind)
	assert.Equal(t, "Student added successfully", flashes[0].Message)

	c3, _ := makeContext(t, "/dashboard", []*http.Cookie{sessionCookie(t, w2)})
	assert.Empty(t, mgr.Flashes(c3))
}
