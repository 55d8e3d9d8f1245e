package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"storefront-api-io/api/internal"
	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CategoryServiceImpl struct {
	categoryCollection *mongo.Collection
	treeCollection     *mongo.Collection
	productCollection  *mongo.Collection
	tx                 *TxRunner
	cache              *internal.CachePublisher
}

func NewCategoryService(db *mongo.Database, tx *TxRunner, cache *internal.CachePublisher) CategoryService {
	return &CategoryServiceImpl{
		categoryCollection: util.GetCollection(db, common.CategoryCollectionName),
		treeCollection:     util.GetCollection(db, common.CategoryTreeCollectionName),
		productCollection:  util.GetCollection(db, common.ProductCollectionName),
		tx:                 tx,
		cache:              cache,
	}
}

// AddCategory inserts a root or child category and rebuilds the tree.
func (s *CategoryServiceImpl) AddCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	name, err := CleanCategoryName(req.Name)
	if err != nil {
		return nil, err
	}

	var parent *models.Category
	if strings.TrimSpace(req.ParentId) != "" {
		parentID, ok := util.LenientObjectID(req.ParentId)
		if !ok {
			return nil, util.Invalidf("parent id %q is not valid", req.ParentId)
		}
		parent, err = s.GetCategory(ctx, parentID)
		if err != nil {
			return nil, errors.Wrap(err, "parent category")
		}
	}

	now := time.Now()
	category := models.Category{
		Id:          primitive.NewObjectID(),
		Name:        name,
		Slug:        slug.Make(name),
		Path:        BuildCategoryPath(parent, name),
		AncestorIds: BuildAncestorIds(parent),
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	if parent != nil {
		parentID := parent.Id
		category.ParentId = &parentID
	}

	if _, err := s.categoryCollection.InsertOne(ctx, category); err != nil {
		return nil, errors.Wrap(err, "insert category")
	}

	s.afterWrite(ctx)
	return &category, nil
}

// RenameCategory renames a node and rewrites the stored path of every
// descendant in one bulk write.
func (s *CategoryServiceImpl) RenameCategory(ctx context.Context, categoryID primitive.ObjectID, newName string) (*models.Category, error) {
	name, err := CleanCategoryName(newName)
	if err != nil {
		return nil, err
	}

	node, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	newPath, updates := PlanCategoryRename(all, *node, name)
	now := time.Now()

	writes := make([]mongo.WriteModel, 0, len(updates)+1)
	writes = append(writes, mongo.NewUpdateOneModel().
		SetFilter(bson.M{"_id": node.Id}).
		SetUpdate(bson.M{"$set": bson.M{
			"name":       name,
			"slug":       slug.Make(name),
			"path":       newPath,
			"modifiedAt": now,
		}}))
	for _, u := range updates {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.Id, "path": u.OldPath}).
			SetUpdate(bson.M{"$set": bson.M{"path": u.NewPath, "modifiedAt": now}}))
	}

	_, err = s.tx.Run(ctx, func(ctx context.Context) (any, error) {
		return s.categoryCollection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	})
	if err != nil {
		return nil, errors.Wrap(err, "rename category")
	}

	node.Name = name
	node.Slug = slug.Make(name)
	node.Path = newPath
	node.ModifiedAt = now

	s.afterWrite(ctx)
	return node, nil
}

// DeleteCategory removes a node with its whole subtree and pulls the removed
// ids from every product.
func (s *CategoryServiceImpl) DeleteCategory(ctx context.Context, categoryID primitive.ObjectID) (*CategoryDeleteResult, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := DescendantsByWalk(all, categoryID).Slice()

	out, err := s.tx.Run(ctx, func(ctx context.Context) (any, error) {
		deleted, err := s.categoryCollection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, errors.Wrap(err, "delete categories")
		}

		pulled, err := s.productCollection.UpdateMany(ctx,
			bson.M{"categoryIds": bson.M{"$in": ids}},
			bson.M{
				"$pull": bson.M{"categoryIds": bson.M{"$in": ids}},
				"$set":  bson.M{"modifiedAt": time.Now()},
			})
		if err != nil {
			return nil, errors.Wrap(err, "pull category references")
		}

		return &CategoryDeleteResult{
			DeletedIds:      ids,
			DeletedCount:    deleted.DeletedCount,
			ProductsUpdated: pulled.ModifiedCount,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx)
	s.cache.Notify(ctx, internal.CacheInvalidateProducts, "")
	return out.(*CategoryDeleteResult), nil
}

func (s *CategoryServiceImpl) GetCategory(ctx context.Context, categoryID primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	err := s.categoryCollection.FindOne(ctx, bson.M{"_id": categoryID}).Decode(&category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, util.NotFoundf("category %s", categoryID.Hex())
		}
		return nil, err
	}
	return &category, nil
}

// ListCategories returns every category ordered by path, with the parent's
// name filled in.
func (s *CategoryServiceImpl) ListCategories(ctx context.Context) ([]models.Category, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	withParentNames(all)
	return all, nil
}

func (s *CategoryServiceImpl) SearchCategories(ctx context.Context, query string) ([]models.Category, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListCategories(ctx)
	}

	filter := bson.M{"name": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	cursor, err := s.categoryCollection.Find(ctx, filter, options.Find().SetSort(bson.M{"path": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// DescendantIDs returns the category and everything below it.
func (s *CategoryServiceImpl) DescendantIDs(ctx context.Context, categoryID primitive.ObjectID) ([]primitive.ObjectID, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return DescendantsByWalk(all, categoryID).Slice(), nil
}

// CategoryPaths resolves ids to their display paths. Unknown ids are skipped.
func (s *CategoryServiceImpl) CategoryPaths(ctx context.Context, ids []primitive.ObjectID) ([]string, error) {
	paths := []string{}
	if len(ids) == 0 {
		return paths, nil
	}

	cursor, err := s.categoryCollection.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.M{"path": 1}).SetProjection(bson.M{"path": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var c struct {
			Path string `bson:"path"`
		}
		if err := cursor.Decode(&c); err != nil {
			return nil, err
		}
		paths = append(paths, c.Path)
	}
	return paths, cursor.Err()
}

// ExistingIDs filters ids down to the categories that exist, keeping order.
func (s *CategoryServiceImpl) ExistingIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(ids) == 0 {
		return []primitive.ObjectID{}, nil
	}

	cursor, err := s.categoryCollection.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	found := IDSet{}
	for cursor.Next(ctx) {
		var c struct {
			Id primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&c); err != nil {
			return nil, err
		}
		found.Add(c.Id)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	existing := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if found.Has(id) {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

// GetTree reads the denormalized tree, rebuilding it when it is missing.
func (s *CategoryServiceImpl) GetTree(ctx context.Context) (*models.CategoryTree, error) {
	var tree models.CategoryTree
	err := s.treeCollection.FindOne(ctx, bson.M{"_id": models.CategoryTreeDocumentID}).Decode(&tree)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s.RebuildTree(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &tree, nil
}

// RebuildTree recomputes the display tree from the categories collection
// and replaces the stored document.
func (s *CategoryServiceImpl) RebuildTree(ctx context.Context) (*models.CategoryTree, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	roots := BuildCategoryTree(all)
	tree := models.CategoryTree{
		Id:        models.CategoryTreeDocumentID,
		Roots:     roots,
		Count:     CountCategoryNodes(roots),
		RebuiltAt: time.Now(),
	}

	_, err = s.treeCollection.ReplaceOne(ctx,
		bson.M{"_id": models.CategoryTreeDocumentID},
		tree,
		options.Replace().SetUpsert(true))
	if err != nil {
		return nil, errors.Wrap(err, "store category tree")
	}

	s.cache.Notify(ctx, internal.CacheInvalidateTree, "")
	return &tree, nil
}

// RepairCategories recomputes every path and ancestor list from parentId
// edges, drops product references to categories that no longer exist and
// rebuilds the tree. A second run changes nothing.
func (s *CategoryServiceImpl) RepairCategories(ctx context.Context) (*models.CategoryRepairResult, error) {
	all, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	lineage := RecomputeCategoryLineage(all)
	now := time.Now()
	writes := []mongo.WriteModel{}
	existing := make([]primitive.ObjectID, 0, len(all))
	for _, c := range all {
		existing = append(existing, c.Id)
		want := lineage[c.Id]
		if c.Path == want.Path && equalObjectIDs(c.AncestorIds, want.AncestorIds) {
			continue
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": c.Id}).
			SetUpdate(bson.M{"$set": bson.M{
				"path":        want.Path,
				"ancestorIds": want.AncestorIds,
				"modifiedAt":  now,
			}}))
	}

	result := &models.CategoryRepairResult{}
	if len(writes) > 0 {
		res, err := s.categoryCollection.BulkWrite(ctx, writes)
		if err != nil {
			return nil, errors.Wrap(err, "repair category paths")
		}
		result.PathsFixed = int(res.ModifiedCount)
	}

	cleaned, err := s.productCollection.UpdateMany(ctx,
		bson.M{"categoryIds": bson.M{"$elemMatch": bson.M{"$nin": existing}}},
		bson.M{"$pull": bson.M{"categoryIds": bson.M{"$nin": existing}}})
	if err != nil {
		return nil, errors.Wrap(err, "prune product category references")
	}
	result.ProductsCleaned = cleaned.ModifiedCount

	tree, err := s.RebuildTree(ctx)
	if err != nil {
		return nil, err
	}
	result.TreeNodes = tree.Count

	util.LogInfof("category repair: %d paths fixed, %d products cleaned", result.PathsFixed, result.ProductsCleaned)
	return result, nil
}

func (s *CategoryServiceImpl) loadAll(ctx context.Context) ([]models.Category, error) {
	cursor, err := s.categoryCollection.Find(ctx, bson.D{}, options.Find().SetSort(bson.M{"path": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// afterWrite keeps the display tree in step with the categories collection.
// A failed rebuild is logged; GetTree and RepairCategories recover it.
func (s *CategoryServiceImpl) afterWrite(ctx context.Context) {
	if _, err := s.RebuildTree(ctx); err != nil {
		util.LogError("rebuild category tree", err)
	}
	s.cache.Notify(ctx, internal.CacheInvalidateCategories, "")
}

func withParentNames(categories []models.Category) {
	names := make(map[primitive.ObjectID]string, len(categories))
	for _, c := range categories {
		names[c.Id] = c.Name
	}
	for i := range categories {
		if categories[i].IsRoot() {
			continue
		}
		categories[i].ParentName = names[*categories[i].ParentId]
	}
}

func equalObjectIDs(a, b []primitive.ObjectID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
