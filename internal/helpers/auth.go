package helpers

import (
	"storefront-api-io/api/internal/auth"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdAndMyId extracts an object id from the named route param and the user
// ID from the session.
func IdAndMyId(c *gin.Context, param string) (primitive.ObjectID, primitive.ObjectID, error) {
	nilObjectId := primitive.NilObjectID

	id, err := ObjectIDParam(c, param)
	if err != nil {
		return nilObjectId, nilObjectId, err
	}

	myId, err := auth.ValidateUserID(c)
	if err != nil {
		return nilObjectId, nilObjectId, err
	}

	return id, myId, nil
}
