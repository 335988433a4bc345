package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/infrastructure/logger"
)

// Owner context keys
const (
	OwnerIDKey     = "owner_id"
	OwnerHeaderKey = "X-Owner-ID"
)

// OwnerMiddlewareConfig holds configuration for owner middleware
type OwnerMiddlewareConfig struct {
	// HeaderEnabled enables X-Owner-ID header extraction. Intended for
	// development; JWT claims always win when present.
	HeaderEnabled bool
	// SkipPaths are paths that don't require owner context
	SkipPaths []string
	// Required determines if owner context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultOwnerConfig returns default owner middleware configuration
func DefaultOwnerConfig() OwnerMiddlewareConfig {
	return OwnerMiddlewareConfig{
		HeaderEnabled: true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Required:      true,
	}
}

// OwnerMiddleware resolves the owner account for the request.
// Extraction order: JWT claims > X-Owner-ID header.
func OwnerMiddleware() gin.HandlerFunc {
	return OwnerMiddlewareWithConfig(DefaultOwnerConfig())
}

// OwnerMiddlewareWithConfig returns owner middleware with custom configuration
func OwnerMiddlewareWithConfig(cfg OwnerMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		ownerID := GetJWTOwnerID(c)

		if ownerID == "" && cfg.HeaderEnabled {
			ownerID = c.GetHeader(OwnerHeaderKey)
		}

		if ownerID != "" {
			if _, err := uuid.Parse(ownerID); err != nil {
				respondUnauthorized(c, "Invalid owner ID format")
				return
			}
		}

		if ownerID == "" && cfg.Required {
			respondUnauthorized(c, "Owner identification required")
			return
		}

		if ownerID != "" {
			c.Set(OwnerIDKey, ownerID)

			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithOwnerID(ctx, log, ownerID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Owner identified", zap.String("owner_id", ownerID))
			}
		}

		c.Next()
	}
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetOwnerID retrieves the owner ID from gin.Context
func GetOwnerID(c *gin.Context) string {
	if ownerID, exists := c.Get(OwnerIDKey); exists {
		if id, ok := ownerID.(string); ok {
			return id
		}
	}
	return ""
}

// GetOwnerUUID retrieves the owner ID as UUID from gin.Context
func GetOwnerUUID(c *gin.Context) (uuid.UUID, error) {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(ownerID)
}
