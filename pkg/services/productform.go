package services

import (
	"math"
	"strconv"
	"strings"

	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductInput is a product form after coercion.
type ProductInput struct {
	Title       string
	Slug        string
	Price       float64
	Stock       int
	Status      models.ProductStatus
	Sku         string
	CategoryIds []primitive.ObjectID
}

var truthyFormValues = map[string]bool{"on": true, "true": true, "1": true, "yes": true}

// ParseProductRequest coerces the raw admin form. Price must be a finite
// non-negative number and stock a non-negative integer; an empty stock
// means 0. When no status is sent the is_active checkbox decides. Category
// ids are parsed leniently and unparsable values are dropped.
func ParseProductRequest(req models.ProductRequest) (ProductInput, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return ProductInput{}, util.Invalidf("title is required")
	}
	if len(title) > common.MAX_TITLE_LENGTH {
		return ProductInput{}, util.Invalidf("title must be at most %d characters", common.MAX_TITLE_LENGTH)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(req.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return ProductInput{}, util.Invalidf("price %q is not a number", req.Price)
	}
	if price < 0 {
		return ProductInput{}, util.Invalidf("price must not be negative")
	}

	stock := 0
	if s := strings.TrimSpace(req.Stock); s != "" {
		stock, err = strconv.Atoi(s)
		if err != nil {
			return ProductInput{}, util.Invalidf("stock %q is not an integer", req.Stock)
		}
		if stock < 0 {
			return ProductInput{}, util.Invalidf("stock must not be negative")
		}
	}

	var status models.ProductStatus
	if req.Status != "" {
		status, err = models.ParseProductStatus(req.Status)
		if err != nil {
			return ProductInput{}, util.Invalidf("%v", err)
		}
	} else if truthyFormValues[strings.ToLower(strings.TrimSpace(req.IsActive))] {
		status = models.ProductStatusActive
	} else {
		status = models.ProductStatusInactive
	}

	return ProductInput{
		Title:       title,
		Slug:        slug.Make(title),
		Price:       price,
		Stock:       stock,
		Status:      status,
		Sku:         strings.TrimSpace(req.Sku),
		CategoryIds: util.LenientObjectIDs(req.Categories),
	}, nil
}
