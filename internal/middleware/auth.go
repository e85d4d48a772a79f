package middleware

import (
	"context"
	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"
	"strings"

	"github.com/gin-gonic/gin"
)

// AccountChecker reports whether an account may still use its tokens.
type AccountChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// AuthMiddleware creates a middleware for JWT authentication.
// Tokens of deactivated accounts are rejected before they expire.
func AuthMiddleware(cfg *config.Config, accounts AccountChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		active, err := accounts.IsActive(c.Request.Context(), claims.UserID)
		if err != nil {
			_ = c.Error(err)
			utils.InternalServerError(c, "Failed to verify account")
			c.Abort()
			return
		}
		if !active {
			utils.Unauthorized(c, "User account is inactive")
			c.Abort()
			return
		}

		// Set account information in context for downstream handlers
		c.Set("userID", claims.UserID)
		c.Set("userRole", claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.InternalServerError(c, "User role not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				c.Next()
				return
			}
		}

		utils.Forbidden(c, "You do not have permission to access this resource.")
		c.Abort()
	}
}

// MinRoleMiddleware lets through every role ranked at or above required.
// It should be used *after* AuthMiddleware.
func MinRoleMiddleware(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRoleFromContext(c)
		if !ok {
			utils.InternalServerError(c, "User role not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		if !services.HasPermission(role, required) {
			utils.Forbidden(c, "You do not have permission to access this resource.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated account id.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}

// GetUserRoleFromContext returns the authenticated account role.
func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	userRole, exists := c.Get("userRole")
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.Role)
	return role, ok
}
