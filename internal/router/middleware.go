package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"holyremedies.mx/storefront/internal/auth"
	"holyremedies.mx/storefront/pkg/global"
)

const (
	cartCookieName   = "cart_session"
	cartCookieMaxAge = 30 * 24 * 60 * 60
	cartKeyContext   = "cart_key"
	claimsContext    = "admin_claims"
)

func RequestLogger() gin.HandlerFunc {
	logger := zap.L().Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// CartSession resolves the browser's cart key from the cart_session cookie,
// issuing a fresh one when it is missing or malformed.
func CartSession(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(cartCookieName)
		if err != nil || uuid.Validate(key) != nil {
			key = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cartCookieName, key, cartCookieMaxAge, "/", "", secure, true)
		}

		c.Set(cartKeyContext, key)
		c.Next()
	}
}

// RequireAdmin accepts a bearer token issued by auth.Service.Login.
func RequireAdmin(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, global.ErrorResponse("Auth is not configured", nil))
			return
		}

		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, global.ErrorResponse("Missing bearer token", []global.ValidationError{
				{Field: "Authorization", Message: "Authorization header must be 'Bearer <token>'", Code: "required"},
			}))
			return
		}

		claims, err := svc.ParseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, global.ErrorResponse(auth.ErrInvalidToken.Error(), nil))
			return
		}

		c.Set(claimsContext, claims)
		c.Next()
	}
}
