package util

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// GetProductSortBson maps a sort query value to a products sort document.
func GetProductSortBson(sort string) bson.D {
	value := -1
	var key string

	switch {
	case strings.HasPrefix(sort, "price"):
		key = "price"
	case strings.HasPrefix(sort, "title"):
		key = "title"
	default:
		key = "createdAt"
	}

	if strings.Contains(sort, "asc") {
		value = 1
	}
	return bson.D{{Key: key, Value: value}, {Key: "_id", Value: value}}
}

// GetOrderSortBson maps a sort query value to an orders sort document.
func GetOrderSortBson(sort string) bson.D {
	value := -1
	if strings.Contains(sort, "asc") {
		value = 1
	}
	return bson.D{{Key: "createdAt", Value: value}}
}
