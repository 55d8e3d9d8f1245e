package services

import (
	"context"
	"testing"
	"time"

	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// Scripted-reply tests: every command the services send is answered in
// order by the mock deployment, and the sent commands are read back from
// the command monitor.

func newMockT(t *testing.T) *mtest.T {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	t.Cleanup(mt.Close)
	return mt
}

// commandLog lists "<command> <collection>" for every command sent so far.
func commandLog(mt *mtest.T) []string {
	out := []string{}
	for _, evt := range mt.GetAllStartedEvents() {
		out = append(out, evt.CommandName+" "+evt.Command.Lookup(evt.CommandName).StringValue())
	}
	return out
}

func startedCommand(mt *mtest.T, index int) bson.Raw {
	mt.Helper()
	events := mt.GetAllStartedEvents()
	require.Greater(mt, len(events), index)
	return events[index].Command
}

func cursorReply(mt *mtest.T, collection string, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, mt.DB.Name()+"."+collection, mtest.FirstBatch, docs...)
}

func writeReply(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

type checkoutFixture struct {
	user      primitive.ObjectID
	notebook  primitive.ObjectID
	pen       primitive.ObjectID
	cartDocs  []bson.D
	checkout  *CheckoutServiceImpl
	mongoTest *mtest.T
}

func newCheckoutFixture(mt *mtest.T) *checkoutFixture {
	f := &checkoutFixture{
		user:      primitive.NewObjectID(),
		notebook:  primitive.NewObjectID(),
		pen:       primitive.NewObjectID(),
		mongoTest: mt,
	}
	f.cartDocs = []bson.D{
		{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: f.user}, {Key: "product_id", Value: f.notebook}, {Key: "qty", Value: int32(2)}},
		{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "userId", Value: f.user}, {Key: "product_id", Value: f.pen}, {Key: "qty", Value: int32(2)}},
	}

	tx := NewTxRunner(nil, false)
	categories := NewCategoryService(mt.DB, tx, nil)
	products := NewProductService(mt.DB, categories, NewGridFSImageStore(mt.DB), nil)
	carts := NewCartService(mt.DB, products, nil)
	f.checkout = NewCheckoutService(mt.DB, carts, products, tx, nil).(*CheckoutServiceImpl)
	return f
}

func productDoc(id primitive.ObjectID, title string, price float64, stock int32) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "price", Value: price},
		{Key: "stock", Value: stock},
		{Key: "status", Value: string(models.ProductStatusActive)},
	}
}

// planReplies answers the cart normalization read, the cart read and the
// product lookup.
func (f *checkoutFixture) planReplies(notebookStock int32) []bson.D {
	mt := f.mongoTest
	return []bson.D{
		cursorReply(mt, "carts", f.cartDocs...),
		cursorReply(mt, "carts", f.cartDocs...),
		cursorReply(mt, "products",
			productDoc(f.notebook, "Notebook", 10.00, notebookStock),
			productDoc(f.pen, "Pen", 2.50, 10)),
	}
}

func (f *checkoutFixture) order() models.Order {
	now := time.Now()
	return models.Order{
		Id:     primitive.NewObjectID(),
		UserId: f.user,
		Lines: []models.OrderLine{
			{ProductId: f.notebook, Title: "Notebook", Price: 10, Qty: 2, LineTotal: 20},
			{ProductId: f.pen, Title: "Pen", Price: 2.5, Qty: 2, LineTotal: 5},
		},
		Total:     25,
		Status:    models.OrderStatusPaid,
		CreatedAt: now,
	}
}

func TestCheckoutWritesOrderThenStockThenCart(t *testing.T) {
	mt := newMockT(t)
	mt.Run("sequential", func(mt *mtest.T) {
		f := newCheckoutFixture(mt)
		mt.AddMockResponses(f.planReplies(5)...)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			writeReply(1),
			writeReply(1),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}),
		)

		order, err := f.checkout.Checkout(context.Background(), f.user, models.CheckoutRequest{})
		require.NoError(mt, err)
		assert.InDelta(mt, 25.00, order.Total, 1e-9)
		assert.Equal(mt, models.OrderStatusPaid, order.Status)
		require.Len(mt, order.Lines, 2)

		assert.Equal(mt, []string{
			"find carts",
			"find carts",
			"find products",
			"insert orders",
			"update products",
			"update products",
			"delete carts",
		}, commandLog(mt))

		inserted := startedCommand(mt, 3)
		assert.Equal(mt, order.Id, inserted.Lookup("documents", "0", "_id").ObjectID())
		assert.Equal(mt, 25.0, inserted.Lookup("documents", "0", "total").Double())

		decrement := startedCommand(mt, 4)
		assert.Equal(mt, f.notebook, decrement.Lookup("updates", "0", "q", "_id").ObjectID())
		assert.EqualValues(mt, -2, decrement.Lookup("updates", "0", "u", "$inc", "stock").Int32())

		cleared := startedCommand(mt, 6)
		assert.Equal(mt, f.user, cleared.Lookup("deletes", "0", "q", "userId").ObjectID())
	})
}

func TestCheckoutOutOfStockSendsNoWrites(t *testing.T) {
	mt := newMockT(t)
	mt.Run("short stock", func(mt *mtest.T) {
		f := newCheckoutFixture(mt)
		mt.AddMockResponses(f.planReplies(1)...)

		_, err := f.checkout.Checkout(context.Background(), f.user, models.CheckoutRequest{})
		assert.ErrorIs(mt, err, util.ErrOutOfStock)

		assert.Equal(mt, []string{"find carts", "find carts", "find products"}, commandLog(mt))
	})
}

func TestCheckoutGuardedWrites(t *testing.T) {
	mt := newMockT(t)

	mt.Run("all lines matched", func(mt *mtest.T) {
		f := newCheckoutFixture(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			writeReply(1),
			writeReply(1),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}),
		)

		require.NoError(mt, f.checkout.writeGuarded(context.Background(), f.order()))
		assert.Equal(mt, []string{
			"insert orders",
			"update products",
			"update products",
			"delete carts",
		}, commandLog(mt))

		guard := startedCommand(mt, 1)
		assert.EqualValues(mt, 2, guard.Lookup("updates", "0", "q", "stock", "$gte").Int32())
		assert.Equal(mt, string(models.ProductStatusActive), guard.Lookup("updates", "0", "q", "status").StringValue())
	})

	mt.Run("sold out line stops the sequence", func(mt *mtest.T) {
		f := newCheckoutFixture(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			writeReply(1),
			writeReply(0),
		)

		err := f.checkout.writeGuarded(context.Background(), f.order())
		assert.ErrorIs(mt, err, util.ErrOutOfStock)
		assert.Contains(mt, err.Error(), "Pen")
		assert.Equal(mt, []string{
			"insert orders",
			"update products",
			"update products",
		}, commandLog(mt))
	})
}

func categoryDoc(id primitive.ObjectID, name, path string, parent *primitive.ObjectID) bson.D {
	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "path", Value: path},
	}
	if parent != nil {
		doc = append(doc, bson.E{Key: "parentId", Value: *parent})
	}
	return doc
}

func TestDeleteCategoryRemovesSubtreeAndPullsProducts(t *testing.T) {
	mt := newMockT(t)
	mt.Run("subtree", func(mt *mtest.T) {
		home := primitive.NewObjectID()
		kitchen := primitive.NewObjectID()
		garden := primitive.NewObjectID()

		homeDoc := categoryDoc(home, "Home", "Home", nil)
		kitchenDoc := categoryDoc(kitchen, "Kitchen", "Home>Kitchen", &home)
		gardenDoc := categoryDoc(garden, "Garden", "Garden", nil)

		mt.AddMockResponses(
			cursorReply(mt, "categories", homeDoc),
			cursorReply(mt, "categories", gardenDoc, homeDoc, kitchenDoc),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}),
			writeReply(3),
			cursorReply(mt, "categories", gardenDoc),
			writeReply(1),
		)

		categories := NewCategoryService(mt.DB, NewTxRunner(nil, false), nil)
		res, err := categories.DeleteCategory(context.Background(), home)
		require.NoError(mt, err)

		assert.ElementsMatch(mt, []primitive.ObjectID{home, kitchen}, res.DeletedIds)
		assert.EqualValues(mt, 2, res.DeletedCount)
		assert.EqualValues(mt, 3, res.ProductsUpdated)

		assert.Equal(mt, []string{
			"find categories",
			"find categories",
			"delete categories",
			"update products",
			"find categories",
			"update categories_tree",
		}, commandLog(mt))

		removed, err := startedCommand(mt, 2).Lookup("deletes", "0", "q", "_id", "$in").Array().Values()
		require.NoError(mt, err)
		assert.Len(mt, removed, 2)

		pull := startedCommand(mt, 3)
		assert.True(mt, pull.Lookup("updates", "0", "multi").Boolean())
		pulled, err := pull.Lookup("updates", "0", "u", "$pull", "categoryIds", "$in").Array().Values()
		require.NoError(mt, err)
		assert.Len(mt, pulled, 2)

		tree := startedCommand(mt, 5)
		assert.EqualValues(mt, 1, tree.Lookup("updates", "0", "u", "count").Int32())
	})
}
