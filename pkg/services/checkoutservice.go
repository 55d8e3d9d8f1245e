package services

import (
	"context"
	"strings"
	"time"

	"storefront-api-io/api/internal"
	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	creditcard "github.com/durango/go-credit-card"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CheckoutServiceImpl struct {
	orderCollection   *mongo.Collection
	productCollection *mongo.Collection
	cartService       CartService
	productService    ProductService
	tx                *TxRunner
	cache             *internal.CachePublisher
}

func NewCheckoutService(db *mongo.Database, cartService CartService, productService ProductService, tx *TxRunner, cache *internal.CachePublisher) CheckoutService {
	return &CheckoutServiceImpl{
		orderCollection:   util.GetCollection(db, common.OrderCollectionName),
		productCollection: util.GetCollection(db, common.ProductCollectionName),
		cartService:       cartService,
		productService:    productService,
		tx:                tx,
		cache:             cache,
	}
}

// Preview validates the cart against live stock and prices without writing.
func (cs *CheckoutServiceImpl) Preview(ctx context.Context, userID primitive.ObjectID) (*models.CheckoutPreview, error) {
	lines, total, err := cs.plan(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutPreview{Lines: lines, Total: total}, nil
}

func (cs *CheckoutServiceImpl) plan(ctx context.Context, userID primitive.ObjectID) ([]models.OrderLine, float64, error) {
	items, err := cs.cartService.GetCartItems(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return nil, 0, util.ErrEmptyCart
	}

	products, err := cs.productService.GetProductsByIDs(ctx, cartProductIDs(items))
	if err != nil {
		return nil, 0, err
	}
	return BuildOrderLines(items, products)
}

// Checkout places an order for the whole cart, decrements stock and clears
// the cart. Preconditions are re-checked here; nothing is written when they
// fail.
func (cs *CheckoutServiceImpl) Checkout(ctx context.Context, userID primitive.ObjectID, req models.CheckoutRequest) (*models.Order, error) {
	if err := common.Validate.Struct(&req); err != nil {
		return nil, util.Invalidf("%v", err)
	}
	payment, err := paymentSummary(req)
	if err != nil {
		return nil, err
	}

	lines, total, err := cs.plan(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := models.Order{
		Id:         primitive.NewObjectID(),
		UserId:     userID,
		Lines:      lines,
		Total:      total,
		Status:     models.OrderStatusPaid,
		Payment:    payment,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if cs.tx.Enabled() {
		err = cs.placeAtomically(ctx, order)
	} else {
		err = cs.placeSequentially(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		cs.cache.Notify(ctx, internal.CacheInvalidateProduct, line.ProductId.Hex())
	}
	util.LogInfof("order %s placed by %s: %d lines, total %.2f", order.Id.Hex(), userID.Hex(), len(lines), total)
	return &order, nil
}

// placeAtomically runs writeGuarded in one transaction. A failed guard
// aborts everything.
func (cs *CheckoutServiceImpl) placeAtomically(ctx context.Context, order models.Order) error {
	_, err := cs.tx.Run(ctx, func(ctx context.Context) (any, error) {
		return nil, cs.writeGuarded(ctx, order)
	})
	return err
}

// writeGuarded inserts the order, decrements stock only where enough is
// left and clears the cart. It stops at the first line whose guard does not
// match.
func (cs *CheckoutServiceImpl) writeGuarded(ctx context.Context, order models.Order) error {
	if _, err := cs.orderCollection.InsertOne(ctx, order); err != nil {
		return errors.Wrap(err, "insert order")
	}

	for _, line := range order.Lines {
		res, err := cs.productCollection.UpdateOne(ctx,
			bson.M{
				"_id":    line.ProductId,
				"status": models.ProductStatusActive,
				"stock":  bson.M{"$gte": line.Qty},
			},
			bson.M{
				"$inc": bson.M{"stock": -line.Qty},
				"$set": bson.M{"modifiedAt": order.CreatedAt},
			})
		if err != nil {
			return errors.Wrap(err, "decrement stock")
		}
		if res.MatchedCount == 0 {
			return errors.Wrapf(util.ErrOutOfStock, "%q sold out during checkout", line.Title)
		}
	}

	if _, err := cs.cartService.ClearCart(ctx, order.UserId); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// placeSequentially is used when the deployment has no transactions. Once
// the order is inserted the remaining steps are logged on failure and not
// rolled back.
func (cs *CheckoutServiceImpl) placeSequentially(ctx context.Context, order models.Order) error {
	if _, err := cs.orderCollection.InsertOne(ctx, order); err != nil {
		return errors.Wrap(err, "insert order")
	}

	for _, line := range order.Lines {
		_, err := cs.productCollection.UpdateOne(ctx,
			bson.M{"_id": line.ProductId},
			bson.M{
				"$inc": bson.M{"stock": -line.Qty},
				"$set": bson.M{"modifiedAt": order.CreatedAt},
			})
		util.LogErrorf(err, "order %s: decrement stock of %s by %d", order.Id.Hex(), line.ProductId.Hex(), line.Qty)
	}

	_, err := cs.cartService.ClearCart(ctx, order.UserId)
	util.LogErrorf(err, "order %s: clear cart of %s", order.Id.Hex(), order.UserId.Hex())
	return nil
}

// paymentSummary validates an optional card and keeps only what may be
// stored: the issuer and the last four digits.
func paymentSummary(req models.CheckoutRequest) (*models.PaymentSummary, error) {
	number := strings.ReplaceAll(strings.TrimSpace(req.CardNumber), " ", "")
	if number == "" {
		return nil, nil
	}

	card := creditcard.Card{
		Number:  number,
		Cvv:     req.Cvv,
		Month:   req.ExpiryMonth,
		Year:    req.ExpiryYear,
		Company: creditcard.Company{},
	}
	if err := card.Validate(true); err != nil {
		return nil, util.Invalidf("card: %v", err)
	}
	lastFour, err := card.LastFour()
	if err != nil {
		return nil, util.Invalidf("card: %v", err)
	}
	if err := card.Method(); err != nil {
		card.Company = creditcard.Company{Short: "unknown", Long: "Unknown"}
	}

	return &models.PaymentSummary{Company: card.Company.Long, LastFour: lastFour}, nil
}

func (cs *CheckoutServiceImpl) ListOrders(ctx context.Context, userID primitive.ObjectID, pagination util.PaginationArgs) ([]models.Order, int64, error) {
	filter := bson.M{"userId": userID}
	findOpts := options.Find().
		SetSort(util.GetOrderSortBson(pagination.Sort)).
		SetSkip(int64(pagination.Skip)).
		SetLimit(int64(pagination.Limit))

	cursor, err := cs.orderCollection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}

	count, err := cs.orderCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

// GetOrder returns an order owned by userID.
func (cs *CheckoutServiceImpl) GetOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := cs.orderCollection.FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.NotFoundf("order %s", orderID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus is the only mutation allowed on a placed order.
func (cs *CheckoutServiceImpl) UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if _, err := models.ParseOrderStatus(string(status)); err != nil {
		return nil, util.Invalidf("%v", err)
	}

	var order models.Order
	err := cs.orderCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": orderID},
		bson.M{"$set": bson.M{"status": status, "modifiedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.NotFoundf("order %s", orderID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
