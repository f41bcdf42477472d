package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/checkout"
	"holyremedies.mx/storefront/pkg/global"
	"holyremedies.mx/storefront/pkg/models"
)

// CreateCheckoutSession snapshots the cart into a pending session. The cart
// itself is left alone until the session is fulfilled.
func (h *handler) CreateCheckoutSession(c *gin.Context) {
	var req models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return
	}

	store := h.openCart(c)
	if store == nil {
		return
	}

	ref, err := h.deps.Initiator.CreateSession(c.Request.Context(), store.Lines(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, global.ErrorResponse(err.Error(), []global.ValidationError{
				{Field: "cart", Message: err.Error(), Code: "empty"},
			}))
		case errors.Is(err, checkout.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, global.ErrorResponse(err.Error(), []global.ValidationError{
				{Field: "email", Message: err.Error(), Code: "email"},
			}))
		case errors.Is(err, checkout.ErrServiceUnavailable):
			c.JSON(http.StatusServiceUnavailable, global.ErrorResponse(checkout.ErrServiceUnavailable.Error(), nil))
		default:
			c.JSON(http.StatusInternalServerError, global.ErrorResponse(checkout.ErrCheckoutCreation.Error(), nil))
		}
		return
	}

	c.JSON(http.StatusCreated, global.SuccessResponse(models.CheckoutSessionRef{
		SessionID:  ref.SessionID,
		CustomerID: ref.CustomerID,
	}))
}

// WatchCheckoutSession streams the session's progress as server-sent events:
// a "pending" event once the watch is attached, then exactly one terminal
// "redirect" or "error" event. The requesting browser's cart is cleared on
// fulfilment.
func (h *handler) WatchCheckoutSession(c *gin.Context) {
	store := h.openCart(c)
	if store == nil {
		return
	}

	ref := checkout.SessionRef{CustomerID: c.Param("customerId"), SessionID: c.Param("sessionId")}
	logger := h.logger.With(zap.String("session", ref.Path()))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	h.sendEvent(c, "pending", gin.H{"sessionId": ref.SessionID})

	outcome, err := h.deps.Watcher.Watch(c.Request.Context(), ref, store)
	if err != nil {
		logger.Warn("subscribe to checkout session failed", zap.Error(err))
		message := checkout.ErrConnectivity.Error()
		if errors.Is(err, models.ErrSessionNotFound) {
			message = models.ErrSessionNotFound.Error()
		}
		h.sendEvent(c, "error", gin.H{"message": message})
		return
	}

	switch outcome.State {
	case checkout.StateFulfilled:
		h.sendEvent(c, "redirect", gin.H{"url": outcome.RedirectURL})
	case checkout.StateCancelled:
		// client went away, nobody to tell
	default:
		h.sendEvent(c, "error", gin.H{"message": outcome.Err.Error(), "state": outcome.State.String()})
	}
}

func (h *handler) sendEvent(c *gin.Context, name string, data any) {
	c.SSEvent(name, data)
	c.Writer.Flush()
}
