package routers

import (
	"storefront-api-io/api/internal/container"
	"storefront-api-io/api/internal/middleware"
	"storefront-api-io/api/pkg/controllers"

	"github.com/gin-gonic/gin"
)

// InitRoute creates the Gin router for the storefront API
func InitRoute(sc *container.ServiceContainer) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS(sc.Config.CORSOrigins))
	router.GET("/ping", controllers.Ping)

	var api *gin.RouterGroup
	if sc.Config.RateLimitPerSecond > 0 {
		api = router.Group("/v1", middleware.RateLimiter(sc.Redis, sc.Config.RateLimitPerSecond))
	} else {
		api = router.Group("/v1")
	}

	{
		setupAuthRoutes(api, sc)
		catalogRoutes(api, sc)

		secured := api.Group("", middleware.RequireSession(sc.Sessions))
		shopperRoutes(secured, sc)

		admin := secured.Group("/admin", middleware.AdminOnly(sc.UserService))
		adminRoutes(admin, sc)
	}

	return router
}

// setupAuthRoutes configures public authentication endpoints
func setupAuthRoutes(api *gin.RouterGroup, sc *container.ServiceContainer) {
	api.POST("/register", sc.UserController.Register())
	api.POST("/login", sc.UserController.Login())
	api.POST("/logout", sc.UserController.Logout())
}

// catalogRoutes configures public browsing endpoints
func catalogRoutes(api *gin.RouterGroup, sc *container.ServiceContainer) {
	api.GET("/products", sc.ProductController.ListProducts(true))
	api.GET("/products/:productid", sc.ProductController.GetProduct(true))
	api.GET("/categories", sc.CategoryController.ListCategories())
	api.GET("/categories/tree", sc.CategoryController.GetTree())
	api.GET("/images/:imageid", sc.ImageController.ServeImage())
}

// shopperRoutes configures endpoints that need a logged-in user
func shopperRoutes(secured *gin.RouterGroup, sc *container.ServiceContainer) {
	secured.GET("/me", sc.UserController.ActiveSessionUser())

	cart := secured.Group("/cart")
	{
		cart.GET("", sc.CartController.GetCart())
		cart.POST("", sc.CartController.AddItem())
		cart.DELETE("", sc.CartController.ClearCart())
		cart.PUT("/items/:productid", sc.CartController.UpdateItemQuantity())
		cart.DELETE("/items/:productid", sc.CartController.RemoveItem())
	}

	secured.GET("/checkout", sc.CheckoutController.Preview())
	secured.POST("/checkout", sc.CheckoutController.Checkout())
	secured.GET("/orders", sc.CheckoutController.ListOrders())
	secured.GET("/orders/:orderid", sc.CheckoutController.GetOrder())
}

// adminRoutes configures back-office endpoints
func adminRoutes(admin *gin.RouterGroup, sc *container.ServiceContainer) {
	products := admin.Group("/products")
	{
		products.GET("", sc.ProductController.ListProducts(false))
		products.POST("", sc.ProductController.CreateProduct())
		products.GET("/:productid", sc.ProductController.GetProduct(false))
		products.PUT("/:productid", sc.ProductController.UpdateProduct())
		products.DELETE("/:productid", sc.ProductController.DeleteProduct())
		products.POST("/:productid/images", sc.ProductController.UploadImages())
		products.DELETE("/:productid/images/:imageid", sc.ProductController.DeleteImage())
	}

	categories := admin.Group("/categories")
	{
		categories.GET("", sc.CategoryController.ListCategories())
		categories.POST("", sc.CategoryController.AddCategory())
		categories.POST("/repair", sc.CategoryController.RepairCategories())
		categories.PUT("/:categoryid", sc.CategoryController.RenameCategory())
		categories.DELETE("/:categoryid", sc.CategoryController.DeleteCategory())
	}

	admin.GET("/invite", sc.SettingsController.GetInviteCode())
	admin.PUT("/invite", sc.SettingsController.SetInviteCode())
	admin.DELETE("/invite", sc.SettingsController.ClearInviteCode())

	admin.PUT("/orders/:orderid/status", sc.CheckoutController.UpdateOrderStatus())
}
