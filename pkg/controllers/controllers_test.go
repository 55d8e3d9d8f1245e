package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-api-io/api/internal/auth"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeCheckout struct {
	previewErr error
	gotReq     *models.CheckoutRequest
	gotUser    primitive.ObjectID
}

func (f *fakeCheckout) Preview(ctx context.Context, userID primitive.ObjectID) (*models.CheckoutPreview, error) {
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return &models.CheckoutPreview{Total: 25}, nil
}

func (f *fakeCheckout) Checkout(ctx context.Context, userID primitive.ObjectID, req models.CheckoutRequest) (*models.Order, error) {
	f.gotUser = userID
	f.gotReq = &req
	return &models.Order{Id: primitive.NewObjectID(), UserId: userID, Total: 25, Status: models.OrderStatusPaid}, nil
}

func (f *fakeCheckout) ListOrders(ctx context.Context, userID primitive.ObjectID, pagination util.PaginationArgs) ([]models.Order, int64, error) {
	return []models.Order{}, 0, nil
}

func (f *fakeCheckout) GetOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	return nil, util.NotFoundf("order %s", orderID.Hex())
}

func (f *fakeCheckout) UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	return &models.Order{Id: orderID, Status: status}, nil
}

func sessionRouter(userID primitive.ObjectID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		auth.SetCurrentSession(c, auth.UserSession{Id: "s", UserId: userID})
		c.Next()
	})
	return router
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckoutAcceptsEmptyBody(t *testing.T) {
	userID := primitive.NewObjectID()
	fake := &fakeCheckout{}
	router := sessionRouter(userID)
	router.POST("/checkout", InitCheckoutController(fake).Checkout())

	w := do(router, http.MethodPost, "/checkout", "")

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, fake.gotReq)
	assert.Empty(t, fake.gotReq.CardNumber)
	assert.Equal(t, userID, fake.gotUser)
}

func TestCheckoutValidatesCardFields(t *testing.T) {
	fake := &fakeCheckout{}
	router := sessionRouter(primitive.NewObjectID())
	router.POST("/checkout", InitCheckoutController(fake).Checkout())

	w := do(router, http.MethodPost, "/checkout", `{"cardNumber":"4242424242424242"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, fake.gotReq)
}

func TestPreviewMapsServiceErrors(t *testing.T) {
	router := sessionRouter(primitive.NewObjectID())
	router.GET("/checkout", InitCheckoutController(&fakeCheckout{previewErr: util.ErrEmptyCart}).Preview())

	w := do(router, http.MethodGet, "/checkout", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body util.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cart is empty", body.Error)
}

func TestGetOrderNotFound(t *testing.T) {
	router := sessionRouter(primitive.NewObjectID())
	router.GET("/orders/:orderid", InitCheckoutController(&fakeCheckout{}).GetOrder())

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/orders/"+primitive.NewObjectID().Hex(), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/orders/nope", "").Code)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	router := sessionRouter(primitive.NewObjectID())
	router.PUT("/orders/:orderid/status", InitCheckoutController(&fakeCheckout{}).UpdateOrderStatus())
	path := "/orders/" + primitive.NewObjectID().Hex() + "/status"

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodPut, path, `{"status":"lost"}`).Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodPut, path, `{"status":"shipped"}`).Code)
}

func TestFilterCategories(t *testing.T) {
	a := models.Category{Id: primitive.NewObjectID(), Name: "A"}
	b := models.Category{Id: primitive.NewObjectID(), Name: "B"}

	got := filterCategories([]models.Category{a, b}, []primitive.ObjectID{b.Id})
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Name)
	assert.Empty(t, filterCategories([]models.Category{a}, nil))
}

func TestPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ping", Ping)

	w := do(router, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

type fakeProducts struct {
	services.ProductService
	gotFilter services.ProductFilter
}

func (f *fakeProducts) ListProducts(ctx context.Context, filter services.ProductFilter, pagination util.PaginationArgs) ([]models.Product, int64, error) {
	f.gotFilter = filter
	return []models.Product{}, 0, nil
}

func TestListProductsAcceptsRepeatedCategories(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := &fakeProducts{}
	router := gin.New()
	router.GET("/products", InitProductController(fake).ListProducts(true))

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	w := do(router, http.MethodGet, "/products?q=mug&cat="+a.Hex()+"&cat=junk&cat=ObjectId('"+b.Hex()+"')", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mug", fake.gotFilter.Query)
	assert.Equal(t, []primitive.ObjectID{a, b}, fake.gotFilter.CategoryIds)
	assert.True(t, fake.gotFilter.ActiveOnly)
}
