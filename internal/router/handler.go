package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/auth"
	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
	"holyremedies.mx/storefront/pkg/redis"
)

type handler struct {
	deps   Dependencies
	logger *zap.Logger
}

func newHandler(deps Dependencies) *handler {
	return &handler{deps: deps, logger: zap.L().Named("router.handler")}
}

// HealthCheck reports the state of the document store and the cache. A nil
// pinger means the service is not configured, which is not an error.
func (h *handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK

	database := pingStatus(ctx, h.deps.DatabasePing)
	if database == "unreachable" {
		status = http.StatusServiceUnavailable
	}
	cache := pingStatus(ctx, h.deps.CachePing)

	body := map[string]string{"status": "OK", "database": database, "cache": cache}
	if status != http.StatusOK {
		body["status"] = "DEGRADED"
	}
	c.JSON(status, global.SuccessResponse(body))
}

func pingStatus(ctx context.Context, ping Pinger) string {
	if ping == nil {
		return "not_configured"
	}
	if err := ping(ctx); err != nil {
		return "unreachable"
	}
	return "connected"
}

// GetAllProducts lists the catalog sorted by name. A store that is not
// configured yields an empty catalog.
func (h *handler) GetAllProducts(c *gin.Context) {
	products, err := h.deps.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		if errors.Is(err, global.ErrStoreUnavailable) {
			h.logger.Warn("catalog unavailable, serving empty list", zap.Error(err))
			c.JSON(http.StatusOK, global.SuccessResponse([]*models.Product{}))
			return
		}
		h.logger.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get products", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

// GetProductByID retrieves a product with Redis caching
func (h *handler) GetProductByID(c *gin.Context) {
	product, hit, err := h.loadProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.productError(c, err)
		return
	}

	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

// loadProduct reads through the cache. Cache failures only cost a round trip
// to the store.
func (h *handler) loadProduct(ctx context.Context, id string) (*models.Product, bool, error) {
	if h.deps.ProductCache != nil {
		product, err := h.deps.ProductCache.Get(ctx, id)
		if err == nil {
			return product, true, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			h.logger.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
		}
	}

	product, err := h.deps.Catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if h.deps.ProductCache != nil {
		if err := h.deps.ProductCache.Set(ctx, product); err != nil {
			h.logger.Warn("failed to cache product", zap.String("product_id", id), zap.Error(err))
		}
	}
	return product, false, nil
}

func (h *handler) productError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		c.JSON(http.StatusNotFound, global.ErrorResponse("Product not found", []global.ValidationError{
			{Field: "id", Message: "No product exists with this id", Code: "not_found"},
		}))
	case errors.Is(err, global.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Catalog is unavailable", nil))
	default:
		h.logger.Error("fetch product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch product", nil))
	}
}

// UpsertProduct creates or replaces a product and refreshes its cache entry.
func (h *handler) UpsertProduct(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product id", []global.ValidationError{
			{Field: "id", Message: "id must be a 24 character hex string", Code: "invalid_format"},
		}))
		return
	}

	var req models.UpsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}

	ctx := c.Request.Context()
	product, err := h.deps.Catalog.UpsertProduct(ctx, req.ToProduct(id))
	if err != nil {
		h.productError(c, err)
		return
	}

	if h.deps.ProductCache != nil {
		if err := h.deps.ProductCache.Set(ctx, product); err != nil {
			h.logger.Warn("failed to refresh product cache", zap.String("product_id", id.Hex()), zap.Error(err))
		}
	}

	c.Header("X-Cache", "REFRESHED")
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

// DeleteProduct removes a product and its cache entries.
func (h *handler) DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()
	product, err := h.deps.Catalog.DeleteProduct(ctx, c.Param("id"))
	if err != nil {
		h.productError(c, err)
		return
	}

	if h.deps.ProductCache != nil {
		if err := h.deps.ProductCache.Delete(ctx, product); err != nil {
			h.logger.Warn("failed to evict product", zap.String("product_id", product.ID.Hex()), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

// GetPromoBanner falls back to the default banner whenever the stored one
// cannot be read.
func (h *handler) GetPromoBanner(c *gin.Context) {
	banner, err := h.deps.Site.GetPromoBanner(c.Request.Context())
	if err != nil {
		h.logger.Warn("promo banner unavailable, serving default", zap.Error(err))
		banner = models.DefaultPromoBanner()
	}
	c.JSON(http.StatusOK, global.SuccessResponse(banner.WithDefaults()))
}

func (h *handler) UpdatePromoBanner(c *gin.Context) {
	var banner models.PromoBanner
	if err := c.ShouldBindJSON(&banner); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}

	banner = banner.WithDefaults()
	if err := h.deps.Site.SetPromoBanner(c.Request.Context(), banner); err != nil {
		if errors.Is(err, global.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Site content is unavailable", nil))
			return
		}
		h.logger.Error("save promo banner failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to save promo banner", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(banner))
}

func (h *handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}
	if h.deps.Auth == nil {
		c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Auth is not configured", nil))
		return
	}

	token, err := h.deps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, global.SuccessResponse(token))
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, global.ErrorResponse(err.Error(), nil))
	case errors.Is(err, auth.ErrNotConfigured), errors.Is(err, global.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Auth is not configured", nil))
	default:
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Login failed", nil))
	}
}
