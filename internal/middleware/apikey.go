package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware guards the machine-facing JSON proxy. An empty key
// leaves the routes open, which is the development default.
type APIKeyMiddleware struct {
	apiKey string
}

func NewAPIKeyMiddleware(apiKey string) *APIKeyMiddleware {
	return &APIKeyMiddleware{apiKey: apiKey}
}

// Enabled reports whether a key is configured.
func (am *APIKeyMiddleware) Enabled() bool {
	return am.apiKey != ""
}

// RequireAPIKey accepts the key as a Bearer token or in X-API-Key.
func (am *APIKeyMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) == 2 && strings.EqualFold(tokenParts[0], "bearer") && am.ValidateKey(tokenParts[1]) {
				c.Next()
				return
			}
		}

		if am.ValidateKey(c.GetHeader("X-API-Key")) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "valid API key required for this endpoint",
		})
	}
}

// ValidateKey compares key against the configured one in constant time.
func (am *APIKeyMiddleware) ValidateKey(key string) bool {
	if !am.Enabled() || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(am.apiKey)) == 1
}
