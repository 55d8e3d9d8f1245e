package services

import (
	"context"
	"time"

	"storefront-api-io/api/internal"
	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartServiceImpl implements the CartService interface
type CartServiceImpl struct {
	cartCollection *mongo.Collection
	productService ProductService
	cache          *internal.CachePublisher
}

// NewCartService creates a new instance of CartService
func NewCartService(db *mongo.Database, productService ProductService, cache *internal.CachePublisher) CartService {
	return &CartServiceImpl{
		cartCollection: util.GetCollection(db, common.CartCollectionName),
		productService: productService,
		cache:          cache,
	}
}

// NormalizeCart rewrites the user's raw cart documents into canonical form:
// one document per product, product_id stored as an ObjectID, summed qty and
// no legacy fields. Deletes are applied before rewrites.
func (cs *CartServiceImpl) NormalizeCart(ctx context.Context, userID primitive.ObjectID) (CartNormalizationPlan, error) {
	entries, err := LoadRawCartEntries(ctx, cs.cartCollection, userID)
	if err != nil {
		return CartNormalizationPlan{}, err
	}

	plan := PlanCartNormalization(entries)
	if plan.Empty() {
		return plan, nil
	}
	if err := ApplyCartNormalization(ctx, cs.cartCollection, plan); err != nil {
		return CartNormalizationPlan{}, err
	}

	util.LogInfof("normalized cart of user %s: %d removed, %d rewritten", userID.Hex(), len(plan.Delete), len(plan.Rewrite))
	return plan, nil
}

// LoadRawCartEntries reads a user's cart documents without assuming any
// field layout.
func LoadRawCartEntries(ctx context.Context, carts *mongo.Collection, userID primitive.ObjectID) ([]RawCartEntry, error) {
	cursor, err := carts.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []RawCartEntry{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		id, ok := doc["_id"].(primitive.ObjectID)
		if !ok {
			continue
		}
		entries = append(entries, RawCartEntry{Id: id, Doc: doc})
	}
	return entries, cursor.Err()
}

// ApplyCartNormalization writes a normalization plan to the carts collection.
func ApplyCartNormalization(ctx context.Context, carts *mongo.Collection, plan CartNormalizationPlan) error {
	if len(plan.Delete) > 0 {
		if _, err := carts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": plan.Delete}}); err != nil {
			return errors.Wrap(err, "delete duplicate cart entries")
		}
	}
	if len(plan.Rewrite) == 0 {
		return nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(plan.Rewrite))
	for _, rw := range plan.Rewrite {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": rw.Id}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"product_id": rw.ProductId,
					"qty":        rw.Qty,
					"modifiedAt": now,
				},
				"$unset": LegacyCartUnset(),
			}))
	}
	if _, err := carts.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		if isDuplicateKey(err) {
			return util.Conflictf("cart changed during normalization")
		}
		return errors.Wrap(err, "rewrite cart entries")
	}
	return nil
}

// GetCartItems returns the normalized cart in the order items were added.
func (cs *CartServiceImpl) GetCartItems(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	if _, err := cs.NormalizeCart(ctx, userID); err != nil {
		return nil, err
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := cs.cartCollection.Find(ctx, bson.M{"userId": userID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.CartItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetCart joins the cart with live product data and availability flags.
func (cs *CartServiceImpl) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.CartView, error) {
	items, err := cs.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, err := cs.productService.GetProductsByIDs(ctx, cartProductIDs(items))
	if err != nil {
		return nil, err
	}

	view := BuildCartView(items, products)
	return &view, nil
}

// AddItem adds qty units of a product, merging with an existing line.
func (cs *CartServiceImpl) AddItem(ctx context.Context, userID primitive.ObjectID, req models.CartItemRequest) (*models.CartItem, error) {
	if err := common.Validate.Struct(&req); err != nil {
		return nil, util.Invalidf("%v", err)
	}
	productID, ok := util.LenientObjectID(req.ProductId)
	if !ok {
		return nil, util.Invalidf("product id %q is not valid", req.ProductId)
	}
	qty := req.Qty
	if qty < 1 {
		qty = 1
	}

	if _, err := cs.NormalizeCart(ctx, userID); err != nil {
		return nil, err
	}

	product, err := cs.productService.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Purchasable() {
		return nil, errors.Wrapf(util.ErrOutOfStock, "%q is not available", product.Title)
	}

	current := 0
	existing, err := cs.findItem(ctx, userID, productID)
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		current = existing.Qty
	}

	total := current + qty
	if total > common.MAX_CART_QTY {
		return nil, util.Invalidf("at most %d units per product", common.MAX_CART_QTY)
	}
	if !product.CanFulfil(total) {
		return nil, errors.Wrapf(util.ErrOutOfStock, "%q has %d in stock, %d requested", product.Title, product.Stock, total)
	}

	now := time.Now()
	_, err = cs.cartCollection.UpdateOne(ctx,
		bson.M{"userId": userID, "product_id": productID},
		bson.M{
			"$inc": bson.M{"qty": qty},
			"$set": bson.M{"modifiedAt": now},
			"$setOnInsert": bson.M{
				"_id":     primitive.NewObjectID(),
				"addedAt": now,
			},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		if isDuplicateKey(err) {
			return nil, util.Conflictf("cart item was added concurrently, retry")
		}
		return nil, errors.Wrap(err, "add cart item")
	}

	cs.notify(ctx, userID)
	return cs.findItem(ctx, userID, productID)
}

// SetQuantity replaces the quantity of an existing line.
func (cs *CartServiceImpl) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.CartItem, error) {
	if qty < 1 || qty > common.MAX_CART_QTY {
		return nil, util.Invalidf("quantity must be between 1 and %d", common.MAX_CART_QTY)
	}
	if _, err := cs.NormalizeCart(ctx, userID); err != nil {
		return nil, err
	}

	product, err := cs.productService.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.CanFulfil(qty) {
		return nil, errors.Wrapf(util.ErrOutOfStock, "%q has %d in stock, %d requested", product.Title, availableStock(*product), qty)
	}

	var item models.CartItem
	err = cs.cartCollection.FindOneAndUpdate(ctx,
		bson.M{"userId": userID, "product_id": productID},
		bson.M{"$set": bson.M{"qty": qty, "modifiedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.NotFoundf("product %s is not in the cart", productID.Hex())
	}
	if err != nil {
		return nil, err
	}

	cs.notify(ctx, userID)
	return &item, nil
}

func (cs *CartServiceImpl) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) error {
	if _, err := cs.NormalizeCart(ctx, userID); err != nil {
		return err
	}

	res, err := cs.cartCollection.DeleteOne(ctx, bson.M{"userId": userID, "product_id": productID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return util.NotFoundf("product %s is not in the cart", productID.Hex())
	}

	cs.notify(ctx, userID)
	return nil
}

// ClearCart removes every line, including unnormalized legacy entries.
func (cs *CartServiceImpl) ClearCart(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := cs.cartCollection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, err
	}
	cs.notify(ctx, userID)
	return res.DeletedCount, nil
}

func (cs *CartServiceImpl) findItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.CartItem, error) {
	var item models.CartItem
	err := cs.cartCollection.FindOne(ctx, bson.M{"userId": userID, "product_id": productID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.NotFoundf("product %s is not in the cart", productID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (cs *CartServiceImpl) notify(ctx context.Context, userID primitive.ObjectID) {
	cs.cache.Notify(ctx, internal.CacheInvalidateCart, userID.Hex())
}

func cartProductIDs(items []models.CartItem) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductId)
	}
	return ids
}
