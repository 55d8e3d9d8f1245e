package controllers

import (
	"net/http"

	"storefront-api-io/api/internal/helpers"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	checkoutService services.CheckoutService
}

func InitCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// Preview shows the order that would be placed.
func (cc *CheckoutController) Preview() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		myId, ok := ValidateAndGetUserID(c)
		if !ok {
			return
		}

		preview, err := cc.checkoutService.Preview(ctx, myId)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", preview)
	}
}

// Checkout places the order. The card fields are optional, so an empty
// body is accepted.
func (cc *CheckoutController) Checkout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		myId, ok := ValidateAndGetUserID(c)
		if !ok {
			return
		}

		var req models.CheckoutRequest
		if c.Request.ContentLength != 0 && !BindAndValidate(c, &req) {
			return
		}

		order, err := cc.checkoutService.Checkout(ctx, myId, req)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusCreated, "order placed", order)
	}
}

func (cc *CheckoutController) ListOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		myId, ok := ValidateAndGetUserID(c)
		if !ok {
			return
		}

		paginationArgs := helpers.GetPaginationArgs(c)
		orders, count, err := cc.checkoutService.ListOrders(ctx, myId, paginationArgs)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		HandlePaginationAndResponse(c, orders, count, paginationArgs, "success")
	}
}

func (cc *CheckoutController) GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		orderId, myId, err := helpers.IdAndMyId(c, "orderid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		order, err := cc.checkoutService.GetOrder(ctx, myId, orderId)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", order)
	}
}

// UpdateOrderStatus is admin only.
func (cc *CheckoutController) UpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		orderId, err := helpers.ObjectIDParam(c, "orderid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		var req models.OrderStatusRequest
		if !BindAndValidate(c, &req) {
			return
		}

		order, err := cc.checkoutService.UpdateOrderStatus(ctx, orderId, models.OrderStatus(req.Status))
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "order updated", order)
	}
}
