package middleware

import (
	"github.com/gin-gonic/gin"
)

// DevelopmentUserID is the user recorded on jobs launched without authentication
const DevelopmentUserID = "00000000-0000-0000-0000-000000000001"

// DevelopmentAuthMiddleware is a simple auth middleware for development
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = DevelopmentUserID
		}
		c.Set("userId", userID)
		c.Set("user_id", userID)
		c.Next()
	}
}

// UserID returns the authenticated user set by IstioAuth or DevelopmentAuthMiddleware
func UserID(c *gin.Context) string {
	if id := c.GetString("user_id"); id != "" {
		return id
	}
	return c.GetString("userId")
}
