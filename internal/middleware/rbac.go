package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/response"
)

// ActorChecker reports who is acting on the gateway.
type ActorChecker interface {
	CurrentUserID() (int64, bool)
	IsAdmin() bool
}

// RequireAdmin rejects the request unless the resolved acting user is an
// admin. An unresolved user counts as a non-admin.
func RequireAdmin(session ActorChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := session.CurrentUserID(); !ok {
			response.Error(c, appErrors.ErrNoActingUser)
			c.Abort()
			return
		}
		if !session.IsAdmin() {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
