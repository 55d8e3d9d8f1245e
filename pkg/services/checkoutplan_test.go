package services

import (
	"testing"

	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func activeProduct(title string, price float64, stock int) models.Product {
	return models.Product{
		Id:     primitive.NewObjectID(),
		Title:  title,
		Price:  price,
		Stock:  stock,
		Status: models.ProductStatusActive,
	}
}

func cartItem(p models.Product, qty int) models.CartItem {
	return models.CartItem{Id: primitive.NewObjectID(), ProductId: p.Id, Qty: qty}
}

func productMap(products ...models.Product) map[primitive.ObjectID]models.Product {
	m := map[primitive.ObjectID]models.Product{}
	for _, p := range products {
		m[p.Id] = p
	}
	return m
}

func TestBuildOrderLines(t *testing.T) {
	mug := activeProduct("Mug", 10.00, 5)
	tea := activeProduct("Tea", 5.00, 1)

	lines, total, err := BuildOrderLines(
		[]models.CartItem{cartItem(mug, 2), cartItem(tea, 1)},
		productMap(mug, tea))

	require.NoError(t, err)
	assert.Equal(t, 25.00, total)
	require.Len(t, lines, 2)
	assert.Equal(t, models.OrderLine{ProductId: mug.Id, Title: "Mug", Price: 10, Qty: 2, LineTotal: 20}, lines[0])
	assert.Equal(t, 5.00, lines[1].LineTotal)
}

func TestBuildOrderLinesRoundsToCents(t *testing.T) {
	pen := activeProduct("Pen", 0.1, 10)

	_, total, err := BuildOrderLines([]models.CartItem{cartItem(pen, 3)}, productMap(pen))
	require.NoError(t, err)
	assert.Equal(t, 0.3, total)
}

func TestBuildOrderLinesRejects(t *testing.T) {
	mug := activeProduct("Mug", 10, 1)
	hidden := activeProduct("Hidden", 10, 10)
	hidden.Status = models.ProductStatusInactive
	gone := activeProduct("Gone", 10, 10)

	cases := []struct {
		name     string
		items    []models.CartItem
		products map[primitive.ObjectID]models.Product
		want     error
	}{
		{"empty cart", nil, productMap(), util.ErrEmptyCart},
		{"short on stock", []models.CartItem{cartItem(mug, 2)}, productMap(mug), util.ErrOutOfStock},
		{"inactive product", []models.CartItem{cartItem(hidden, 1)}, productMap(hidden), util.ErrOutOfStock},
		{"deleted product", []models.CartItem{cartItem(gone, 1)}, productMap(), util.ErrOutOfStock},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lines, total, err := BuildOrderLines(tc.items, tc.products)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, lines)
			assert.Zero(t, total)
		})
	}
}

func TestBuildCartView(t *testing.T) {
	mug := activeProduct("Mug", 10, 1)
	hidden := activeProduct("Hidden", 4, 10)
	hidden.Status = models.ProductStatusInactive
	gone := activeProduct("Gone", 10, 10)

	view := BuildCartView(
		[]models.CartItem{cartItem(mug, 2), cartItem(hidden, 1), cartItem(gone, 1)},
		productMap(mug, hidden))

	require.Len(t, view.Lines, 3)
	assert.True(t, view.Lines[0].IsAvailable)
	assert.True(t, view.Lines[0].InsufficientStock)
	assert.False(t, view.Lines[1].IsAvailable)
	assert.Nil(t, view.Lines[2].Product)
	assert.False(t, view.Lines[2].IsAvailable)

	assert.True(t, view.HasInvalidItems)
	assert.Equal(t, 4, view.TotalItems)
	assert.Equal(t, 24.0, view.Total)
}

func TestGrantsAdmin(t *testing.T) {
	cases := []struct {
		name     string
		existing int64
		invite   string
		stored   string
		env      string
		want     bool
	}{
		{"first user", 0, "", "", "", true},
		{"no invite", 3, "", "secret", "", false},
		{"stored code matches", 3, "secret", "secret", "other", true},
		{"stored code wins over env", 3, "other", "secret", "other", false},
		{"env fallback", 3, "fallback", "", "fallback", true},
		{"no code configured", 3, "anything", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GrantsAdmin(tc.existing, tc.invite, tc.stored, tc.env))
		})
	}
}
