package controllers

import (
	"net/http"

	"storefront-api-io/api/internal/helpers"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CategoryController struct {
	categoryService services.CategoryService
}

func InitCategoryController(categoryService services.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

// ListCategories lists every category by path. q searches by name; cat
// narrows the list to one category and its descendants.
func (cc *CategoryController) ListCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		categoryId, err := helpers.OptionalObjectIDQuery(c, "cat")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		categories, err := cc.categoryService.SearchCategories(ctx, c.Query("q"))
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		if categoryId != nil {
			ids, err := cc.categoryService.DescendantIDs(ctx, *categoryId)
			if err != nil {
				util.HandleServiceError(c, err)
				return
			}
			categories = filterCategories(categories, ids)
		}

		util.HandleSuccess(c, http.StatusOK, "success", categories)
	}
}

func filterCategories(categories []models.Category, ids []primitive.ObjectID) []models.Category {
	keep := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := []models.Category{}
	for _, cat := range categories {
		if keep[cat.Id] {
			out = append(out, cat)
		}
	}
	return out
}

func (cc *CategoryController) GetTree() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		tree, err := cc.categoryService.GetTree(ctx)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", tree)
	}
}

func (cc *CategoryController) AddCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		var req models.CategoryRequest
		if !BindAndValidate(c, &req) {
			return
		}

		category, err := cc.categoryService.AddCategory(ctx, req)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusCreated, "category created", category)
	}
}

func (cc *CategoryController) RenameCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		categoryId, err := helpers.ObjectIDParam(c, "categoryid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		var req models.CategoryRenameRequest
		if !BindAndValidate(c, &req) {
			return
		}

		category, err := cc.categoryService.RenameCategory(ctx, categoryId, req.Name)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "category renamed", category)
	}
}

// DeleteCategory removes the category with its subtree.
func (cc *CategoryController) DeleteCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		categoryId, err := helpers.ObjectIDParam(c, "categoryid")
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		result, err := cc.categoryService.DeleteCategory(ctx, categoryId)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "category deleted", result)
	}
}

func (cc *CategoryController) RepairCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		result, err := cc.categoryService.RepairCategories(ctx)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "categories repaired", result)
	}
}
