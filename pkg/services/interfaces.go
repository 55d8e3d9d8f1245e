package services

import (
	"context"

	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryDeleteResult reports what a subtree delete removed.
type CategoryDeleteResult struct {
	DeletedIds      []primitive.ObjectID `json:"deletedIds"`
	DeletedCount    int64                `json:"deletedCount"`
	ProductsUpdated int64                `json:"productsUpdated"`
}

// CategoryService maintains the category hierarchy and its display tree.
type CategoryService interface {
	AddCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error)
	RenameCategory(ctx context.Context, categoryID primitive.ObjectID, newName string) (*models.Category, error)
	DeleteCategory(ctx context.Context, categoryID primitive.ObjectID) (*CategoryDeleteResult, error)

	GetCategory(ctx context.Context, categoryID primitive.ObjectID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	SearchCategories(ctx context.Context, query string) ([]models.Category, error)
	DescendantIDs(ctx context.Context, categoryID primitive.ObjectID) ([]primitive.ObjectID, error)
	CategoryPaths(ctx context.Context, ids []primitive.ObjectID) ([]string, error)
	ExistingIDs(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)

	GetTree(ctx context.Context) (*models.CategoryTree, error)
	RebuildTree(ctx context.Context) (*models.CategoryTree, error)
	RepairCategories(ctx context.Context) (*models.CategoryRepairResult, error)
}

// ProductFilter narrows public and admin product listings.
type ProductFilter struct {
	Query       string
	CategoryIds []primitive.ObjectID
	ActiveOnly  bool
}

// ProductService handles the catalog and product images.
type ProductService interface {
	CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID primitive.ObjectID, req models.ProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID primitive.ObjectID) error

	GetProduct(ctx context.Context, productID primitive.ObjectID) (*models.Product, error)
	GetProductDetail(ctx context.Context, productID primitive.ObjectID, publicOnly bool) (*models.ProductDetail, error)
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, pagination util.PaginationArgs) ([]models.Product, int64, error)

	AddImages(ctx context.Context, productID primitive.ObjectID, uploads []models.ImageUpload) ([]string, error)
	DeleteImage(ctx context.Context, productID primitive.ObjectID, imageID string) error
}

// CartService owns the carts collection. Every read and mutation first
// normalizes the user's cart.
type CartService interface {
	NormalizeCart(ctx context.Context, userID primitive.ObjectID) (CartNormalizationPlan, error)
	GetCartItems(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	GetCart(ctx context.Context, userID primitive.ObjectID) (*models.CartView, error)
	AddItem(ctx context.Context, userID primitive.ObjectID, req models.CartItemRequest) (*models.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) error
	ClearCart(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// CheckoutService turns a cart into an order.
type CheckoutService interface {
	Preview(ctx context.Context, userID primitive.ObjectID) (*models.CheckoutPreview, error)
	Checkout(ctx context.Context, userID primitive.ObjectID, req models.CheckoutRequest) (*models.Order, error)
	ListOrders(ctx context.Context, userID primitive.ObjectID, pagination util.PaginationArgs) ([]models.Order, int64, error)
	GetOrder(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
}

// UserService handles registration and credential checks.
type UserService interface {
	Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Authenticate(ctx context.Context, req models.UserAuthRequest) (*models.User, error)
	GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
}

// SettingsService stores site settings. Only the admin invite code exists.
type SettingsService interface {
	GetInviteCode(ctx context.Context) (string, error)
	SetInviteCode(ctx context.Context, code string) error
	ClearInviteCode(ctx context.Context) error
}

// ImageStore keeps product image bytes.
type ImageStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, imageID string) ([]byte, string, error)
	Delete(ctx context.Context, imageID string) error
	URL(imageID string) string
}
