package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"order-verify-service/utils"
)

// AuthMiddleware resolves the caller's user ID from a bearer token and sets
// it on the context as "userID". Requests without a valid token are rejected.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": false, "message": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		userID, err := utils.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": false, "message": "Invalid or expired token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
