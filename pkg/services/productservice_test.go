package services

import (
	"testing"

	"storefront-api-io/api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProductListQueryMatchesTitleOrSku(t *testing.T) {
	query := ProductListQuery(ProductFilter{Query: "  blue.mug ", ActiveOnly: true}, nil)

	assert.Equal(t, models.ProductStatusActive, query["status"])
	assert.NotContains(t, query, "categoryIds")
	assert.NotContains(t, query, "title")

	or, ok := query["$or"].(bson.A)
	require.True(t, ok)
	pattern := primitive.Regex{Pattern: `blue\.mug`, Options: "i"}
	assert.Equal(t, bson.A{bson.M{"title": pattern}, bson.M{"sku": pattern}}, or)
}

func TestProductListQueryCategoryFilter(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	query := ProductListQuery(ProductFilter{}, []primitive.ObjectID{a, b})
	assert.Equal(t, bson.M{"categoryIds": bson.M{"$in": []primitive.ObjectID{a, b}}}, query)

	assert.Empty(t, ProductListQuery(ProductFilter{Query: "   "}, nil))
}
