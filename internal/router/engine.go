package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"holyremedies.mx/storefront/internal/auth"
	"holyremedies.mx/storefront/internal/cart"
	"holyremedies.mx/storefront/internal/checkout"
	"holyremedies.mx/storefront/internal/metrics"
	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpsertProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) (*models.Product, error)

	ListCategories(ctx context.Context) ([]*models.Category, error)
	UpsertCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) (*models.Category, error)
}

type ProductCache interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, product *models.Product) error
	GetCategory(ctx context.Context, name string) ([]*models.Product, error)
	SetCategory(ctx context.Context, name string, products []*models.Product) error
}

type SiteContent interface {
	GetPromoBanner(ctx context.Context) (models.PromoBanner, error)
	SetPromoBanner(ctx context.Context, banner models.PromoBanner) error
}

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type Dependencies struct {
	Config global.Config

	Catalog      Catalog
	ProductCache ProductCache
	Site         SiteContent
	CartStorage  cart.Storage

	Initiator *checkout.Initiator
	Watcher   *checkout.Watcher
	Auth      *auth.Service
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer

	DatabasePing Pinger
	CachePing    Pinger
}

// NewEngine builds the HTTP surface over the given dependencies.
func NewEngine(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := newHandler(deps)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		products := api.Group("/products")
		{
			products.GET("", h.GetAllProducts)
			products.GET("/:id", h.GetProductByID)
		}

		api.GET("/categories", h.GetCategories)
		api.GET("/catalog", h.GetCatalog)

		site := api.Group("/site")
		{
			site.GET("/promo-banner", h.GetPromoBanner)
		}

		api.POST("/auth/login", h.Login)

		cartRoutes := api.Group("/cart")
		cartRoutes.Use(CartSession(deps.Config.IsProduction()))
		{
			cartRoutes.GET("", h.GetCart)
			cartRoutes.POST("/items", h.AddToCart)
			cartRoutes.PUT("/items/:productId", h.UpdateCartItem)
			cartRoutes.DELETE("/items/:productId", h.RemoveFromCart)
			cartRoutes.DELETE("", h.ClearCart)
		}

		checkoutRoutes := api.Group("/checkout")
		checkoutRoutes.Use(CartSession(deps.Config.IsProduction()))
		{
			checkoutRoutes.POST("", h.CreateCheckoutSession)
			checkoutRoutes.GET("/:customerId/sessions/:sessionId/events", h.WatchCheckoutSession)
		}

		admin := api.Group("/admin")
		admin.Use(RequireAdmin(deps.Auth))
		{
			admin.PUT("/products/:id", h.UpsertProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.PUT("/categories/:id", h.UpsertCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)
			admin.PUT("/site/promo-banner", h.UpdatePromoBanner)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Route not found", nil))
	})

	return router
}
