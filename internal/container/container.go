package container

import (
	"storefront-api-io/api/config"
	"storefront-api-io/api/internal"
	"storefront-api-io/api/internal/auth"
	"storefront-api-io/api/internal/common"
	"storefront-api-io/api/pkg/controllers"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServiceContainer wires services and controllers from explicit
// dependencies.
type ServiceContainer struct {
	Config *config.Config
	Redis  *redis.Client

	Sessions *auth.SessionStore

	CategoryService services.CategoryService
	ProductService  services.ProductService
	CartService     services.CartService
	CheckoutService services.CheckoutService
	UserService     services.UserService
	SettingsService services.SettingsService
	ImageStore      services.ImageStore

	UserController     *controllers.UserController
	CategoryController *controllers.CategoryController
	ProductController  *controllers.ProductController
	CartController     *controllers.CartController
	CheckoutController *controllers.CheckoutController
	SettingsController *controllers.SettingsController
	ImageController    *controllers.ImageController
}

func NewServiceContainer(cfg *config.Config, client *mongo.Client, db *mongo.Database, redisClient *redis.Client) (*ServiceContainer, error) {
	images, err := newImageStore(cfg, db)
	if err != nil {
		return nil, err
	}

	cache := internal.NewCachePublisher(redisClient)
	tx := services.NewTxRunner(client, cfg.MongoTransactions)
	sessions := auth.NewSessionStore(redisClient, cfg.Secret, common.SESSION_TTL)

	settingsService := services.NewSettingsService(db)
	userService := services.NewUserService(db, settingsService, cfg.AdminInviteCode, cache)
	categoryService := services.NewCategoryService(db, tx, cache)
	productService := services.NewProductService(db, categoryService, images, cache)
	cartService := services.NewCartService(db, productService, cache)
	checkoutService := services.NewCheckoutService(db, cartService, productService, tx, cache)

	return &ServiceContainer{
		Config:   cfg,
		Redis:    redisClient,
		Sessions: sessions,

		CategoryService: categoryService,
		ProductService:  productService,
		CartService:     cartService,
		CheckoutService: checkoutService,
		UserService:     userService,
		SettingsService: settingsService,
		ImageStore:      images,

		UserController:     controllers.InitUserController(userService, sessions),
		CategoryController: controllers.InitCategoryController(categoryService),
		ProductController:  controllers.InitProductController(productService),
		CartController:     controllers.InitCartController(cartService),
		CheckoutController: controllers.InitCheckoutController(checkoutService),
		SettingsController: controllers.InitSettingsController(settingsService),
		ImageController:    controllers.InitImageController(images),
	}, nil
}

func newImageStore(cfg *config.Config, db *mongo.Database) (services.ImageStore, error) {
	if cfg.ImageBackend != config.ImageBackendCloudinary {
		return services.NewGridFSImageStore(db), nil
	}

	cld, err := util.InitCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary image backend")
	}
	return services.NewCloudinaryImageStore(cld, cfg.CloudinaryUploadFolder), nil
}
