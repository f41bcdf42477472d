package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/cart"
	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
)

// openCart loads the cart for the request's cart_session key. It writes the
// error response itself and returns nil when the cart cannot be loaded.
func (h *handler) openCart(c *gin.Context) *cart.Store {
	key := c.GetString(cartKeyContext)
	store, err := cart.Open(c.Request.Context(), h.deps.CartStorage, key, cart.WithMutationHook(h.deps.Metrics.CartMutation))
	if err != nil {
		h.logger.Error("load cart failed", zap.String("cart", key), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Cart is unavailable", nil))
		return nil
	}
	return store
}

func (h *handler) GetCart(c *gin.Context) {
	store := h.openCart(c)
	if store == nil {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(store.View()))
}

func (h *handler) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}

	store := h.openCart(c)
	if store == nil {
		return
	}

	// Price and image are snapshotted from the catalog, never from the client.
	product, _, err := h.loadProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		h.productError(c, err)
		return
	}

	if err := store.AddToCart(c.Request.Context(), product, req.Quantity); err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(store.View()))
}

func (h *handler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}

	store := h.openCart(c)
	if store == nil {
		return
	}

	if err := store.UpdateQuantity(c.Request.Context(), c.Param("productId"), req.Quantity); err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(store.View()))
}

func (h *handler) RemoveFromCart(c *gin.Context) {
	store := h.openCart(c)
	if store == nil {
		return
	}

	if err := store.RemoveFromCart(c.Request.Context(), c.Param("productId")); err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(store.View()))
}

func (h *handler) ClearCart(c *gin.Context) {
	store := h.openCart(c)
	if store == nil {
		return
	}

	if err := store.ClearCart(c.Request.Context()); err != nil {
		h.cartError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(store.View()))
}

func (h *handler) cartError(c *gin.Context, err error) {
	if errors.Is(err, cart.ErrInvalidQuantity) {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid quantity", []global.ValidationError{
			{Field: "quantity", Message: err.Error(), Code: "min"},
		}))
		return
	}
	h.logger.Error("persist cart failed", zap.String("cart", c.GetString(cartKeyContext)), zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, global.ErrorResponse("Failed to save cart", nil))
}
