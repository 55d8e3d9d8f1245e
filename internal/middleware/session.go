package middleware

import (
	"storefront-api-io/api/internal/auth"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

// RequireSession rejects requests without a live session and stores the
// session on the context for handlers.
func RequireSession(sessions auth.SessionLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Load(c)
		if err != nil {
			util.HandleServiceError(c, err)
			c.Abort()
			return
		}

		auth.SetCurrentSession(c, session)
		c.Next()
	}
}
