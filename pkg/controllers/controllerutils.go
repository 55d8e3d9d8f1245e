package controllers

import (
	"context"
	"net/http"

	"storefront-api-io/api/internal/auth"
	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithTimeout derives a context with the standard request timeout from the
// request, so a client disconnect cancels the work too.
func WithTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), common.REQUEST_TIMEOUT_SECS)
}

// ValidateAndGetUserID validates user ID and handles errors automatically
func ValidateAndGetUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := auth.ValidateUserID(c)
	if err != nil {
		util.HandleError(c, http.StatusUnauthorized, err)
		return primitive.NilObjectID, false
	}
	return userID, true
}

// BindAndValidate binds a form or JSON body and runs struct validation.
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		util.HandleError(c, http.StatusBadRequest, err)
		return false
	}

	if err := common.Validate.Struct(obj); err != nil {
		util.HandleError(c, http.StatusBadRequest, err)
		return false
	}

	return true
}

// HandlePaginationAndResponse is a utility for common pagination responses
func HandlePaginationAndResponse(c *gin.Context, data any, count int64, paginationArgs util.PaginationArgs, message string) {
	util.HandleSuccessMeta(c, http.StatusOK, message, data, gin.H{
		"pagination": util.Pagination{
			Limit: paginationArgs.Limit,
			Skip:  paginationArgs.Skip,
			Count: count,
		},
	})
}
