package auth

import (
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sessionContextKey = "session"

// SessionLoader resolves the session of a request.
type SessionLoader interface {
	Load(c *gin.Context) (UserSession, error)
}

// SetCurrentSession stores the authenticated session on the request context.
func SetCurrentSession(c *gin.Context, session UserSession) {
	c.Set(sessionContextKey, session)
}

// CurrentSession returns the session stored by the session middleware.
func CurrentSession(c *gin.Context) (UserSession, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return UserSession{}, false
	}
	session, ok := v.(UserSession)
	return session, ok
}

// ValidateUserID returns the id of the authenticated user.
func ValidateUserID(c *gin.Context) (primitive.ObjectID, error) {
	session, ok := CurrentSession(c)
	if !ok || session.UserId.IsZero() {
		return primitive.NilObjectID, errors.Wrap(util.ErrUnauthorized, "no active session")
	}
	return session.UserId, nil
}
