package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"student_console/internal/session"
)

// SessionKey is the gin context key holding the restored session.
const SessionKey = "consoleSession"

// RequireAuth restores the browser session and gates the request on it.
// Unauthenticated requests are bounced to the login page with their original
// target captured for the post-login redirect. The check is advisory UX; the
// records API enforces authorization for real.
func RequireAuth(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur := mgr.Restore(c)
		if !cur.IsAuthenticated() {
			mgr.CaptureNext(c)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		c.Set(SessionKey, cur)
		c.Next()
	}
}

// CurrentSession returns the session stashed by RequireAuth, or an empty
// (unauthenticated) one if the guard did not run.
func CurrentSession(c *gin.Context) *session.Current {
	val, exists := c.Get(SessionKey)
	if !exists {
		return &session.Current{}
	}
	cur, ok := val.(*session.Current)
	if !ok {
		return &session.Current{}
	}
	return cur
}
