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

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProductServiceImpl struct {
	productCollection *mongo.Collection
	categoryService   CategoryService
	images            ImageStore
	skus              *SKUGenerator
	cache             *internal.CachePublisher
}

func NewProductService(db *mongo.Database, categoryService CategoryService, images ImageStore, cache *internal.CachePublisher) ProductService {
	return &ProductServiceImpl{
		productCollection: util.GetCollection(db, common.ProductCollectionName),
		categoryService:   categoryService,
		images:            images,
		skus:              NewSKUGenerator(),
		cache:             cache,
	}
}

// CreateProduct coerces the admin form, drops category ids that do not
// resolve and inserts the product.
func (ps *ProductServiceImpl) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	if err := common.Validate.Struct(&req); err != nil {
		return nil, util.Invalidf("%v", err)
	}
	input, err := ParseProductRequest(req)
	if err != nil {
		return nil, err
	}

	categoryIds, err := ps.categoryService.ExistingIDs(ctx, input.CategoryIds)
	if err != nil {
		return nil, err
	}

	sku := input.Sku
	if sku == "" {
		sku = ps.skus.GenerateSKU(input.Title)
	}

	now := time.Now()
	product := models.Product{
		Id:          primitive.NewObjectID(),
		Title:       input.Title,
		Slug:        input.Slug,
		Price:       input.Price,
		Stock:       input.Stock,
		Status:      input.Status,
		Sku:         sku,
		CategoryIds: categoryIds,
		ImageIds:    []string{},
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	if _, err := ps.productCollection.InsertOne(ctx, product); err != nil {
		return nil, errors.Wrap(err, "insert product")
	}

	ps.cache.Notify(ctx, internal.CacheInvalidateProducts, "")
	return &product, nil
}

// UpdateProduct replaces the editable fields. An empty SKU keeps the stored one.
func (ps *ProductServiceImpl) UpdateProduct(ctx context.Context, productID primitive.ObjectID, req models.ProductRequest) (*models.Product, error) {
	if err := common.Validate.Struct(&req); err != nil {
		return nil, util.Invalidf("%v", err)
	}
	input, err := ParseProductRequest(req)
	if err != nil {
		return nil, err
	}

	categoryIds, err := ps.categoryService.ExistingIDs(ctx, input.CategoryIds)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":       input.Title,
		"slug":        input.Slug,
		"price":       input.Price,
		"stock":       input.Stock,
		"status":      input.Status,
		"categoryIds": categoryIds,
		"modifiedAt":  time.Now(),
	}
	if input.Sku != "" {
		set["sku"] = input.Sku
	}

	var product models.Product
	err = ps.productCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.NotFoundf("product %s", productID.Hex())
	}
	if err != nil {
		return nil, errors.Wrap(err, "update product")
	}

	ps.notifyProduct(ctx, productID)
	return &product, nil
}

// DeleteProduct removes the product and then its images. Image deletion
// failures are logged; the product is already gone.
func (ps *ProductServiceImpl) DeleteProduct(ctx context.Context, productID primitive.ObjectID) error {
	product, err := ps.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	res, err := ps.productCollection.DeleteOne(ctx, bson.M{"_id": productID})
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return util.NotFoundf("product %s", productID.Hex())
	}

	for _, imageID := range product.ImageIds {
		if err := ps.images.Delete(ctx, imageID); err != nil {
			util.LogErrorf(err, "delete image %s of product %s", imageID, productID.Hex())
		}
	}

	ps.notifyProduct(ctx, productID)
	return nil
}

func (ps *ProductServiceImpl) GetProduct(ctx context.Context, productID primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := ps.productCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, util.NotFoundf("product %s", productID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductDetail resolves category paths and image URLs. With publicOnly
// an inactive product is reported as not found.
func (ps *ProductServiceImpl) GetProductDetail(ctx context.Context, productID primitive.ObjectID, publicOnly bool) (*models.ProductDetail, error) {
	product, err := ps.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if publicOnly && product.Status != models.ProductStatusActive {
		return nil, util.NotFoundf("product %s", productID.Hex())
	}

	paths, err := ps.categoryService.CategoryPaths(ctx, product.CategoryIds)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(product.ImageIds))
	for _, id := range product.ImageIds {
		urls = append(urls, ps.images.URL(id))
	}

	return &models.ProductDetail{
		Product:    *product,
		Categories: paths,
		ImageUrls:  urls,
	}, nil
}

func (ps *ProductServiceImpl) GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	products := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	cursor, err := ps.productCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		products[p.Id] = p
	}
	return products, cursor.Err()
}

// ListProducts pages through products. Category filters match the selected
// categories and all of their descendants.
func (ps *ProductServiceImpl) ListProducts(ctx context.Context, filter ProductFilter, pagination util.PaginationArgs) ([]models.Product, int64, error) {
	categoryIds := IDSet{}
	for _, id := range filter.CategoryIds {
		ids, err := ps.categoryService.DescendantIDs(ctx, id)
		if err != nil {
			return nil, 0, err
		}
		for _, d := range ids {
			categoryIds.Add(d)
		}
	}
	query := ProductListQuery(filter, categoryIds.Slice())

	findOpts := options.Find().
		SetSort(util.GetProductSortBson(pagination.Sort)).
		SetSkip(int64(pagination.Skip)).
		SetLimit(int64(pagination.Limit))

	cursor, err := ps.productCollection.Find(ctx, query, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	count, err := ps.productCollection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// ProductListQuery builds the products filter. The keyword matches title or
// SKU, case-insensitively and literally.
func ProductListQuery(filter ProductFilter, categoryIds []primitive.ObjectID) bson.M {
	query := bson.M{}
	if filter.ActiveOnly {
		query["status"] = models.ProductStatusActive
	}
	if len(categoryIds) > 0 {
		query["categoryIds"] = bson.M{"$in": categoryIds}
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"sku": pattern},
		}
	}
	return query
}

// AddImages stores the uploads and appends their ids to the product. Images
// stored before a failure are removed again.
func (ps *ProductServiceImpl) AddImages(ctx context.Context, productID primitive.ObjectID, uploads []models.ImageUpload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, util.Invalidf("no images uploaded")
	}
	if len(uploads) > common.IMAGE_COUNT {
		return nil, util.Invalidf("at most %d images per upload", common.IMAGE_COUNT)
	}
	if _, err := ps.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(uploads))
	rollback := func() {
		for _, id := range ids {
			util.LogError("rollback image "+id, ps.images.Delete(ctx, id))
		}
	}

	for _, upload := range uploads {
		if len(upload.Data) > common.MAX_IMAGE_SIZE {
			rollback()
			return nil, util.Invalidf("%s is larger than %d bytes", upload.Filename, common.MAX_IMAGE_SIZE)
		}
		id, err := ps.images.Store(ctx, upload.Data, upload.ContentType)
		if err != nil {
			rollback()
			return nil, err
		}
		ids = append(ids, id)
	}

	res, err := ps.productCollection.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{
			"$push": bson.M{"imageIds": bson.M{"$each": ids}},
			"$set":  bson.M{"modifiedAt": time.Now()},
		})
	if err == nil && res.MatchedCount == 0 {
		err = util.NotFoundf("product %s", productID.Hex())
	}
	if err != nil {
		rollback()
		return nil, err
	}

	ps.notifyProduct(ctx, productID)
	return ids, nil
}

// DeleteImage detaches the image from the product and deletes its bytes.
func (ps *ProductServiceImpl) DeleteImage(ctx context.Context, productID primitive.ObjectID, imageID string) error {
	res, err := ps.productCollection.UpdateOne(ctx,
		bson.M{"_id": productID, "imageIds": imageID},
		bson.M{
			"$pull": bson.M{"imageIds": imageID},
			"$set":  bson.M{"modifiedAt": time.Now()},
		})
	if err != nil {
		return errors.Wrap(err, "detach image")
	}
	if res.MatchedCount == 0 {
		return util.NotFoundf("image %s on product %s", imageID, productID.Hex())
	}

	if err := ps.images.Delete(ctx, imageID); err != nil {
		return err
	}

	ps.notifyProduct(ctx, productID)
	return nil
}

func (ps *ProductServiceImpl) notifyProduct(ctx context.Context, productID primitive.ObjectID) {
	ps.cache.Notify(ctx, internal.CacheInvalidateProduct, productID.Hex())
	ps.cache.Notify(ctx, internal.CacheInvalidateProducts, "")
}
