package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-api-io/api/internal/auth"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUsers map[primitive.ObjectID]*models.User

func (f fakeUsers) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	if u, ok := f[userID]; ok {
		return u, nil
	}
	return nil, util.NotFoundf("user %s", userID.Hex())
}

type fakeSessions struct {
	session auth.UserSession
	err     error
}

func (f fakeSessions) Load(c *gin.Context) (auth.UserSession, error) {
	return f.session, f.err
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func withSession(userID primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !userID.IsZero() {
			auth.SetCurrentSession(c, auth.UserSession{Id: "s", UserId: userID})
		}
		c.Next()
	}
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestAdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	admin := &models.User{Id: primitive.NewObjectID(), IsAdmin: true}
	shopper := &models.User{Id: primitive.NewObjectID()}
	users := fakeUsers{admin.Id: admin, shopper.Id: shopper}

	cases := []struct {
		name   string
		userID primitive.ObjectID
		want   int
	}{
		{"no session", primitive.NilObjectID, http.StatusUnauthorized},
		{"unknown user", primitive.NewObjectID(), http.StatusUnauthorized},
		{"shopper", shopper.Id, http.StatusForbidden},
		{"admin", admin.Id, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/admin", withSession(tc.userID), AdminOnly(users), ok)

			w := serve(router, http.MethodGet, "/admin")
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := primitive.NewObjectID()

	router := gin.New()
	router.GET("/me", RequireSession(fakeSessions{session: auth.UserSession{Id: "s", UserId: userID}}), func(c *gin.Context) {
		id, err := auth.ValidateUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.Hex())
	})

	w := serve(router, http.MethodGet, "/me")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.Hex(), w.Body.String())

	denied := gin.New()
	denied.GET("/me", RequireSession(fakeSessions{err: errors.Wrap(util.ErrUnauthorized, "session expired")}), ok)
	assert.Equal(t, http.StatusUnauthorized, serve(denied, http.MethodGet, "/me").Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CORS([]string{"https://shop.example"}))
	router.GET("/ping", ok)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	open := gin.New()
	open.Use(CORS(nil))
	open.GET("/ping", ok)
	assert.Equal(t, http.StatusOK, serve(open, http.MethodGet, "/ping").Code)
}
