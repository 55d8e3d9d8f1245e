package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	Id         primitive.ObjectID `bson:"_id" json:"_id"`
	UserId     primitive.ObjectID `bson:"userId" json:"userId"`
	ProductId  primitive.ObjectID `bson:"product_id" json:"productId"`
	Qty        int                `bson:"qty" json:"qty"`
	AddedAt    time.Time          `bson:"addedAt" json:"addedAt"`
	ModifiedAt time.Time          `bson:"modifiedAt" json:"modifiedAt"`
}

type CartItemRequest struct {
	ProductId string `form:"product_id" json:"productId" validate:"required"`
	Qty       int    `form:"qty" json:"qty" validate:"omitempty,min=1,max=999"`
}

type CartQuantityRequest struct {
	Qty int `form:"qty" json:"qty" validate:"required,min=1,max=999"`
}

// CartLine is a cart item joined with the live product.
type CartLine struct {
	Item              CartItem `json:"item"`
	Product           *Product `json:"product,omitempty"`
	UnitPrice         float64  `json:"unitPrice"`
	LineTotal         float64  `json:"lineTotal"`
	IsAvailable       bool     `json:"isAvailable"`
	InsufficientStock bool     `json:"insufficientStock"`
}

type CartView struct {
	Lines           []CartLine `json:"lines"`
	Total           float64    `json:"total"`
	TotalItems      int        `json:"totalItems"`
	HasInvalidItems bool       `json:"hasInvalidItems"`
}
