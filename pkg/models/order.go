package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderLine is a price/title snapshot taken at checkout.
type OrderLine struct {
	ProductId primitive.ObjectID `bson:"product_id" json:"productId"`
	Title     string             `bson:"title" json:"title"`
	Price     float64            `bson:"price" json:"price"`
	Qty       int                `bson:"qty" json:"qty"`
	LineTotal float64            `bson:"lineTotal" json:"lineTotal"`
}

type PaymentSummary struct {
	Company  string `bson:"company" json:"company"`
	LastFour string `bson:"lastFour" json:"lastFour"`
}

type Order struct {
	Id         primitive.ObjectID `bson:"_id" json:"_id"`
	UserId     primitive.ObjectID `bson:"userId" json:"userId"`
	Lines      []OrderLine        `bson:"lines" json:"lines"`
	Total      float64            `bson:"total" json:"total"`
	Status     OrderStatus        `bson:"status" json:"status"`
	Payment    *PaymentSummary    `bson:"payment,omitempty" json:"payment,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	ModifiedAt time.Time          `bson:"modifiedAt" json:"modifiedAt"`
}

// CheckoutRequest carries an optional payment card. When CardNumber is
// empty the order is placed without card details.
type CheckoutRequest struct {
	CardNumber  string `form:"card_number" json:"cardNumber" validate:"omitempty,min=12,max=19,numeric"`
	Cvv         string `form:"cvv" json:"cvv" validate:"required_with=CardNumber"`
	ExpiryMonth string `form:"expiry_month" json:"expiryMonth" validate:"required_with=CardNumber"`
	ExpiryYear  string `form:"expiry_year" json:"expiryYear" validate:"required_with=CardNumber"`
}

// CheckoutPreview is what the checkout page shows before the order is placed.
type CheckoutPreview struct {
	Lines []OrderLine `json:"lines"`
	Total float64     `json:"total"`
}

type OrderStatusRequest struct {
	Status string `form:"status" json:"status" validate:"required,oneof=paid shipped cancelled refunded"`
}
