package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestGetProductSortBson(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, GetProductSortBson(""))
	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}, GetProductSortBson("price_asc"))
	assert.Equal(t, bson.D{{Key: "title", Value: -1}, {Key: "_id", Value: -1}}, GetProductSortBson("title_desc"))
}

func TestGetOrderSortBson(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, GetOrderSortBson("created_at_desc"))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, GetOrderSortBson("created_at_asc"))
}
