package httpserver

import (
	"net/http"
	"strings"
	"time"

	"bakery-storefront/internal/domain"
	authsvc "bakery-storefront/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	claimsKey         = "auth.claims"
	idempotencyHeader = "Idempotency-Key"
)

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// authMiddleware requires a valid bearer token and stores its claims on the
// context. Failures other than a rejected token surface as 500.
func (h *handlers) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, domain.ErrAuthRequired.Error())
			return
		}
		claims, err := h.deps.AuthSvc.Authenticate(c.Request.Context(), raw)
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !claimsFrom(c).IsAdmin() {
			abortWithError(c, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) authsvc.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return authsvc.Claims{}
	}
	claims, _ := v.(authsvc.Claims)
	return claims
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}
