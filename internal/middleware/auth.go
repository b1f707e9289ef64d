// Package middleware holds the gin middleware shared by the HTTP API:
// bearer-token auth, request correlation, access logging and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alphinepj/Clam-Companion/internal/application"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

// JWTAuth rejects requests without a valid bearer token and stores the
// token's user id in the gin context for the handlers behind it.
func JWTAuth(tokens *application.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing Authorization header",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must be of the form: Bearer <token>",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}
