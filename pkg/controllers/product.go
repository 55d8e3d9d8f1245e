package controllers

import (
	"net/http"

	"storefront-api-io/api/internal/helpers"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	productService services.ProductService
}

func InitProductController(productService services.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// ListProducts pages through products. Public callers only see active ones.
// q matches title or SKU; cat may repeat and selects category subtrees.
// Unparseable cat values are ignored.
func (pc *ProductController) ListProducts(publicOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		filter := services.ProductFilter{
			Query:       c.Query("q"),
			CategoryIds: util.LenientObjectIDs(c.QueryArray("cat")),
			ActiveOnly:  publicOnly,
		}
		paginationArgs := helpers.GetPaginationArgs(c)

		products, count, err := pc.productService.ListProducts(ctx, filter, paginationArgs)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		HandlePaginationAndResponse(c, products, count, paginationArgs, "success")
	}
}

func (pc *ProductController) GetProduct(publicOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		productId, err := helpers.ObjectIDParam(c, "productid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		product, err := pc.productService.GetProductDetail(ctx, productId, publicOnly)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", product)
	}
}

func (pc *ProductController) CreateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		var req models.ProductRequest
		if !BindAndValidate(c, &req) {
			return
		}

		product, err := pc.productService.CreateProduct(ctx, req)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusCreated, "product created", product)
	}
}

func (pc *ProductController) UpdateProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		productId, err := helpers.ObjectIDParam(c, "productid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		var req models.ProductRequest
		if !BindAndValidate(c, &req) {
			return
		}

		product, err := pc.productService.UpdateProduct(ctx, productId, req)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "product updated", product)
	}
}

func (pc *ProductController) DeleteProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		productId, err := helpers.ObjectIDParam(c, "productid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		if err := pc.productService.DeleteProduct(ctx, productId); err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "product deleted", nil)
	}
}

// UploadImages accepts multipart "images" files.
func (pc *ProductController) UploadImages() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		productId, err := helpers.ObjectIDParam(c, "productid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		uploads, err := helpers.ReadImageUploads(c)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		ids, err := pc.productService.AddImages(ctx, productId, uploads)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusCreated, "images uploaded", gin.H{"imageIds": ids})
	}
}

func (pc *ProductController) DeleteImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		productId, err := helpers.ObjectIDParam(c, "productid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		if err := pc.productService.DeleteImage(ctx, productId, c.Param("imageid")); err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "image deleted", nil)
	}
}
