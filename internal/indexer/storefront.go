package indexer

import (
	"context"

	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StorefrontIndexes registers the indexes the API relies on. The unique
// cart index only builds once legacy carts are normalized, so run
// StorefrontMigrations first.
func StorefrontIndexes(m *Manager) *Manager {
	return m.
		AddCompoundIndex(common.UserCollectionName, []string{"email"}, options.Index().SetUnique(true)).
		AddCompoundIndex(common.CategoryCollectionName, []string{"path"}).
		AddCompoundIndex(common.CategoryCollectionName, []string{"parentId"}).
		AddCompoundIndex(common.ProductCollectionName, []string{"status", "createdAt"}).
		AddCompoundIndex(common.ProductCollectionName, []string{"categoryIds"}).
		AddCompoundIndex(common.ProductCollectionName, []string{"slug"}).
		AddCompoundIndex(common.CartCollectionName, []string{"userId", "product_id"}, options.Index().SetUnique(true)).
		AddCompoundIndex(common.OrderCollectionName, []string{"userId", "createdAt"})
}

// StorefrontMigrations registers the data fixes that bring older databases
// to the current document shapes.
func StorefrontMigrations(mm *MigrationManager) *MigrationManager {
	return mm.
		AddMigration(Migration{
			Version:     "0001_normalize_carts",
			Description: "merge duplicate cart entries and rewrite legacy cart fields",
			Up:          NormalizeAllCarts,
		}).
		AddMigration(Migration{
			Version:     "0002_repair_categories",
			Description: "recompute category paths and ancestors, prune dangling product categories",
			Up:          RepairCategories,
		})
}

// NormalizeAllCarts normalizes the cart of every user that has one.
func NormalizeAllCarts(ctx context.Context, db *mongo.Database) error {
	carts := util.GetCollection(db, common.CartCollectionName)

	raw, err := carts.Distinct(ctx, "userId", bson.M{})
	if err != nil {
		return errors.Wrap(err, "list cart owners")
	}

	deleted, rewritten := 0, 0
	for _, v := range raw {
		userID, ok := v.(primitive.ObjectID)
		if !ok {
			util.LogWarning("skipping cart entries with a non ObjectID userId")
			continue
		}

		entries, err := services.LoadRawCartEntries(ctx, carts, userID)
		if err != nil {
			return errors.Wrapf(err, "load cart of %s", userID.Hex())
		}
		plan := services.PlanCartNormalization(entries)
		if plan.Empty() {
			continue
		}
		if err := services.ApplyCartNormalization(ctx, carts, plan); err != nil {
			return errors.Wrapf(err, "normalize cart of %s", userID.Hex())
		}
		deleted += len(plan.Delete)
		rewritten += len(plan.Rewrite)
	}

	util.LogInfof("cart normalization: %d users, %d entries removed, %d rewritten", len(raw), deleted, rewritten)
	return nil
}

// RepairCategories runs the category repair outside a transaction and
// without cache notifications.
func RepairCategories(ctx context.Context, db *mongo.Database) error {
	categoryService := services.NewCategoryService(db, services.NewTxRunner(nil, false), nil)
	_, err := categoryService.RepairCategories(ctx)
	return err
}
