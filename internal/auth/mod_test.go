package auth

import (
	"net/http/httptest"
	"testing"

	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCurrentSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := ValidateUserID(c)
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	userID := primitive.NewObjectID()
	SetCurrentSession(c, UserSession{Id: "s", UserId: userID})

	session, ok := CurrentSession(c)
	require.True(t, ok)
	assert.Equal(t, "s", session.Id)

	got, err := ValidateUserID(c)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestExtractSessionTokenPrefersCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Authorization", "Bearer from-header")

	token, err := ExtractSessionToken(c)
	require.NoError(t, err)
	assert.Equal(t, "from-header", token)

	c.Request.Header.Set("Cookie", SESSION_NAME+"=from-cookie")
	token, err = ExtractSessionToken(c)
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", token)
}
