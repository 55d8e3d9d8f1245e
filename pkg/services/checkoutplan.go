package services

import (
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BuildOrderLines validates cart items against the live products and returns
// the order line snapshot and its total rounded to cents. Nothing is written.
// A line whose product is missing, inactive or short on stock fails the
// whole checkout with ErrOutOfStock.
func BuildOrderLines(items []models.CartItem, products map[primitive.ObjectID]models.Product) ([]models.OrderLine, float64, error) {
	if len(items) == 0 {
		return nil, 0, util.ErrEmptyCart
	}

	lines := make([]models.OrderLine, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		product, ok := products[item.ProductId]
		if !ok {
			return nil, 0, errors.Wrapf(util.ErrOutOfStock, "product %s is no longer available", item.ProductId.Hex())
		}
		if !product.CanFulfil(item.Qty) {
			return nil, 0, errors.Wrapf(util.ErrOutOfStock, "%q has %d in stock, %d requested", product.Title, availableStock(product), item.Qty)
		}

		price := decimal.NewFromFloat(product.Price)
		lineTotal := price.Mul(decimal.NewFromInt(int64(item.Qty))).Round(2)
		total = total.Add(lineTotal)

		lines = append(lines, models.OrderLine{
			ProductId: product.Id,
			Title:     product.Title,
			Price:     product.Price,
			Qty:       item.Qty,
			LineTotal: lineTotal.InexactFloat64(),
		})
	}

	return lines, total.Round(2).InexactFloat64(), nil
}

func availableStock(p models.Product) int {
	if p.Status != models.ProductStatusActive {
		return 0
	}
	return p.Stock
}

// BuildCartView joins cart items with the live products for display. Lines
// that could not be checked out are flagged but still listed.
func BuildCartView(items []models.CartItem, products map[primitive.ObjectID]models.Product) models.CartView {
	view := models.CartView{Lines: make([]models.CartLine, 0, len(items))}
	total := decimal.Zero
	for _, item := range items {
		line := models.CartLine{Item: item}
		if product, ok := products[item.ProductId]; ok {
			p := product
			line.Product = &p
			line.UnitPrice = p.Price
			lineTotal := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(item.Qty))).Round(2)
			line.LineTotal = lineTotal.InexactFloat64()
			line.IsAvailable = p.Status == models.ProductStatusActive
			line.InsufficientStock = p.Stock < item.Qty
			total = total.Add(lineTotal)
		}
		if !line.IsAvailable || line.InsufficientStock {
			view.HasInvalidItems = true
		}
		view.TotalItems += item.Qty
		view.Lines = append(view.Lines, line)
	}
	view.Total = total.Round(2).InexactFloat64()
	return view
}

// GrantsAdmin decides whether a newly registered user becomes an admin. The
// first user always does; later users must present the stored invite code,
// or the environment fallback when nothing is stored.
func GrantsAdmin(existingUsers int64, invite, storedCode, envCode string) bool {
	if existingUsers == 0 {
		return true
	}
	if invite == "" {
		return false
	}
	code := storedCode
	if code == "" {
		code = envCode
	}
	return code != "" && invite == code
}
