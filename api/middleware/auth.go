package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/oab/models"
)

const apiKeyContextKey = "api_key"

// Auth guards the lookup endpoint with API keys. The oab_search tool sends
// its key as X-API-Key; Authorization: Bearer <key> is accepted too.
//
// Keys are held as SHA-256 digests and every one is compared in constant
// time. An empty key list disables auth.
func Auth(apiKeys []string) gin.HandlerFunc {
	digests := make([][sha256.Size]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	if len(digests) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := presentedKey(c)
		if key == "" {
			c.Header("WWW-Authenticate", `Bearer realm="oab"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "lookup requires an API key: send X-API-Key or Authorization: Bearer <key>",
				Code:  models.ErrCodeUnauthorized,
			})
			return
		}
		if !knownKey(digests, key) {
			c.Header("WWW-Authenticate", `Bearer realm="oab", error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error: "API key not recognized",
				Code:  models.ErrCodeUnauthorized,
			})
			return
		}

		c.Set(apiKeyContextKey, key)
		c.Next()
	}
}

func knownKey(digests [][sha256.Size]byte, key string) bool {
	got := sha256.Sum256([]byte(key))
	match := 0
	for i := range digests {
		match |= subtle.ConstantTimeCompare(got[:], digests[i][:])
	}
	return match == 1
}

// presentedKey reads X-API-Key first, then a Bearer token.
func presentedKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
