package middleware

import (
	"net/http"

	"marketplace-escrow/internal/service"

	"github.com/gin-gonic/gin"
)

// RequirePermission gates a route on the RBAC policy. The dispute resolution
// route relies on this to restrict verdicts to administrators.
func RequirePermission(authzService *service.AuthorizationService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUserFromContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
			c.Abort()
			return
		}

		allowed, err := authzService.CheckPermission(user, resource, action)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			c.Abort()
			return
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}

		c.Next()
	}
}
