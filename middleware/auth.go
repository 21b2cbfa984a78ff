// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	technicianRepo "repairhub/database/repository/technician"
	"repairhub/models"
	"repairhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const identityKey = "identity"

// JWTAuthMiddleware verifies the bearer token and stores the caller identity.
// Technician tokens are also checked against the directory, with the result
// cached in Redis for utils.AuthCacheTTL. A nil cache disables caching.
func JWTAuthMiddleware(technicians technicianRepo.TechnicianRepository, cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, role, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if role == utils.RoleTechnician && !technicianAllowed(c, technicians, cache, userID, tokenString) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Technician account not found or suspended"})
			return
		}

		c.Set(identityKey, models.Identity{UserID: userID, Role: role})
		c.Next()
	}
}

func technicianAllowed(c *gin.Context, technicians technicianRepo.TechnicianRepository, cache *redis.Client, userID, token string) bool {
	ctx := c.Request.Context()
	cacheKey := utils.AuthCachePrefix + utils.RoleTechnician + ":" + userID
	computedHash := utils.HashToken(token)

	if cache != nil {
		cachedHash, err := cache.Get(ctx, cacheKey).Result()
		if err == nil && cachedHash == computedHash {
			return true
		}
		if err != nil && err != redis.Nil {
			zap.L().Warn("Auth cache unavailable, falling back to DB lookup", zap.Error(err))
		}
	}

	if technicians == nil {
		return false
	}
	t, err := technicians.GetByID(ctx, userID)
	if err != nil || t == nil || t.Status == models.TechnicianSuspended {
		return false
	}

	if cache != nil {
		if err := cache.Set(ctx, cacheKey, computedHash, utils.AuthCacheTTL).Err(); err != nil {
			zap.L().Warn("Failed to cache technician auth", zap.String("technicianID", userID), zap.Error(err))
		}
	}
	return true
}

// RequireRole rejects callers whose identity carries none of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		for _, r := range roles {
			if id.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have access to this resource"})
	}
}

// GetIdentity returns the identity set by JWTAuthMiddleware.
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
