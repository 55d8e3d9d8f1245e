package common

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Database collections
const (
	UserCollectionName         = "users"
	ProductCollectionName      = "products"
	CategoryCollectionName     = "categories"
	CategoryTreeCollectionName = "categories_tree"
	CartCollectionName         = "carts"
	OrderCollectionName        = "orders"
	SettingsCollectionName     = "settings"
	ImageBucketName            = "images"
)

var Validate = validator.New()

const (
	REQUEST_TIMEOUT_SECS = 30 * time.Second
	SESSION_TTL          = 7 * 24 * time.Hour

	MAX_TITLE_LENGTH = 140
	MAX_IMAGE_SIZE   = 10 << 20
	IMAGE_COUNT      = 5
	MAX_CART_QTY     = 999
)
