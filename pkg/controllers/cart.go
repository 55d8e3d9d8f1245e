package controllers

import (
	"net/http"

	"storefront-api-io/api/internal/helpers"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	cartService services.CartService
}

func InitCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart returns the cart with live prices and availability.
func (cc *CartController) GetCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		myId, ok := ValidateAndGetUserID(c)
		if !ok {
			return
		}

		cart, err := cc.cartService.GetCart(ctx, myId)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", cart)
	}
}

func (cc *CartController) AddItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		myId, ok := ValidateAndGetUserID(c)
		if !ok {
			return
		}

		var req models.CartItemRequest
		if !BindAndValidate(c, &req) {
			return
		}

		item, err := cc.cartService.AddItem(ctx, myId, req)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "item added to cart", item)
	}
}

func (cc *CartController) UpdateItemQuantity() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		productId, myId, err := helpers.IdAndMyId(c, "productid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		var req models.CartQuantityRequest
		if !BindAndValidate(c, &req) {
			return
		}

		item, err := cc.cartService.SetQuantity(ctx, myId, productId, req.Qty)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "quantity updated", item)
	}
}

func (cc *CartController) RemoveItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		productId, myId, err := helpers.IdAndMyId(c, "productid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		if err := cc.cartService.RemoveItem(ctx, myId, productId); err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "item removed", nil)
	}
}

func (cc *CartController) ClearCart() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		myId, ok := ValidateAndGetUserID(c)
		if !ok {
			return
		}

		removed, err := cc.cartService.ClearCart(ctx, myId)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "cart cleared", gin.H{"removed": removed})
	}
}
