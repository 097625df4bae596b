package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth guards routes with a single shared API key. Clients send
// either "Authorization: Bearer <key>" or the legacy "X-API-Key"
// header. A missing credential is 401; a wrong one is 403.
func APIKeyAuth(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := extractKey(c)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "failed",
				"error":  "missing API key",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(secretKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status": "failed",
				"error":  "invalid API key",
			})
			return
		}

		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if key, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(key)
		}
	}
	return strings.TrimSpace(c.GetHeader("X-API-Key"))
}
