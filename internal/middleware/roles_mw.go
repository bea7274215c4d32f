package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"student_console/internal/model"
)

// RequireRoles lets the request through only when the signed-in user's role
// is in the allow-list. Anyone else lands on the unauthorized page. Must run
// after RequireAuth.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur := CurrentSession(c)
		if !cur.IsAuthenticated() {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}

		isAllowed := false
		for _, allowedRole := range allowedRoles {
			if cur.User.Role == allowedRole {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			c.Redirect(http.StatusSeeOther, "/unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly gates record mutations to administrators.
func AdminOnly() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin)
}
