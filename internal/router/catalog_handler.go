package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
	"holyremedies.mx/storefront/pkg/redis"
)

func (h *handler) GetCategories(c *gin.Context) {
	categories, err := h.deps.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		if errors.Is(err, global.ErrStoreUnavailable) {
			c.JSON(http.StatusOK, global.SuccessResponse([]*models.Category{}))
			return
		}
		h.logger.Error("list categories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get categories", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(categories))
}

// GetCatalog returns the catalog grouped by category, in category order.
// Products come from the per-category cache lists when every list is warm.
func (h *handler) GetCatalog(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := h.deps.Catalog.ListCategories(ctx)
	if err != nil {
		if errors.Is(err, global.ErrStoreUnavailable) {
			h.logger.Warn("catalog unavailable, serving empty catalog", zap.Error(err))
			c.JSON(http.StatusOK, global.SuccessResponse([]models.CatalogSection{}))
			return
		}
		h.logger.Error("list categories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get catalog", nil))
		return
	}

	if sections, ok := h.cachedCatalog(ctx, categories); ok {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, global.SuccessResponse(sections))
		return
	}

	products, err := h.deps.Catalog.ListProducts(ctx)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get catalog", nil))
		return
	}
	h.cacheCatalog(ctx, categories, products)

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, global.SuccessResponse(models.GroupByCategory(categories, products)))
}

func (h *handler) cachedCatalog(ctx context.Context, categories []*models.Category) ([]models.CatalogSection, bool) {
	if h.deps.ProductCache == nil {
		return nil, false
	}

	sections := []models.CatalogSection{}
	for _, category := range categories {
		products, err := h.deps.ProductCache.GetCategory(ctx, category.Name)
		if err != nil {
			if !errors.Is(err, redis.ErrCacheMiss) {
				h.logger.Warn("category cache read failed", zap.String("category", category.Name), zap.Error(err))
			}
			return nil, false
		}
		if len(products) > 0 {
			sections = append(sections, models.CatalogSection{Name: category.Name, Logo: category.Logo, Products: products})
		}
	}
	return sections, true
}

func (h *handler) cacheCatalog(ctx context.Context, categories []*models.Category, products []*models.Product) {
	if h.deps.ProductCache == nil {
		return
	}

	byCategory := make(map[string][]*models.Product)
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}
	for _, category := range categories {
		if err := h.deps.ProductCache.SetCategory(ctx, category.Name, byCategory[category.Name]); err != nil {
			h.logger.Warn("failed to cache category", zap.String("category", category.Name), zap.Error(err))
			return
		}
	}
}

func (h *handler) UpsertCategory(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid category id", []global.ValidationError{
			{Field: "id", Message: "id must be a 24 character hex string", Code: "invalid_format"},
		}))
		return
	}

	var req models.UpsertCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}

	category, err := h.deps.Catalog.UpsertCategory(c.Request.Context(), req.ToCategory(id))
	if err != nil {
		h.categoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(category))
}

func (h *handler) DeleteCategory(c *gin.Context) {
	category, err := h.deps.Catalog.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.categoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(category))
}

func (h *handler) categoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, global.ErrorResponse("Category not found", []global.ValidationError{
			{Field: "id", Message: "No category exists with this id", Code: "not_found"},
		}))
	case errors.Is(err, global.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Catalog is unavailable", nil))
	default:
		h.logger.Error("category write failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to save category", nil))
	}
}
