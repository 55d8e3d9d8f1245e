package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	Id          primitive.ObjectID   `bson:"_id" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	Slug        string               `bson:"slug" json:"slug"`
	Price       float64              `bson:"price" json:"price"`
	Stock       int                  `bson:"stock" json:"stock"`
	Status      ProductStatus        `bson:"status" json:"status"`
	Sku         string               `bson:"sku" json:"sku"`
	CategoryIds []primitive.ObjectID `bson:"categoryIds" json:"categoryIds"`
	ImageIds    []string             `bson:"imageIds" json:"imageIds"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	ModifiedAt  time.Time            `bson:"modifiedAt" json:"modifiedAt"`
}

// Purchasable reports whether the product can be added to a cart at all.
func (p Product) Purchasable() bool {
	return p.Status == ProductStatusActive && p.Stock > 0
}

// CanFulfil reports whether qty units can be sold right now.
func (p Product) CanFulfil(qty int) bool {
	return p.Status == ProductStatusActive && qty > 0 && p.Stock >= qty
}

// ProductRequest is the raw admin form. Price and stock arrive as text and
// are coerced by the product service.
type ProductRequest struct {
	Title      string   `form:"title" json:"title" validate:"required,max=140"`
	Price      string   `form:"price" json:"price" validate:"required"`
	Stock      string   `form:"stock" json:"stock"`
	Sku        string   `form:"sku" json:"sku" validate:"max=64"`
	Status     string   `form:"status" json:"status" validate:"omitempty,oneof=active inactive"`
	IsActive   string   `form:"is_active" json:"isActive"`
	Categories []string `form:"categories" json:"categories"`
}

// ProductDetail is a product with its category paths resolved for display.
type ProductDetail struct {
	Product    `bson:",inline"`
	Categories []string `json:"categories"`
	ImageUrls  []string `json:"imageUrls"`
}
