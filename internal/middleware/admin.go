package middleware

import (
	"context"
	"net/http"

	"storefront-api-io/api/internal/auth"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserLookup is the part of the user service the admin check needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

// AdminOnly restricts a route group to admins. The user is reloaded on
// every request so a revoked admin loses access immediately. Must run after
// RequireSession.
func AdminOnly(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := auth.CurrentSession(c)
		if !ok {
			util.HandleError(c, http.StatusUnauthorized, util.ErrUnauthorized)
			c.Abort()
			return
		}

		currentUser, err := users.GetUserByID(c.Request.Context(), session.UserId)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		if !currentUser.IsAdmin {
			c.JSON(http.StatusForbidden, util.ErrorResponse{
				Error:  "insufficient permissions: admin access required",
				Status: http.StatusForbidden,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
