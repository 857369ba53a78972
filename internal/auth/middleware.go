package auth

import (
	"crypto/subtle"
	"net/http"

	"todoapi/internal/dto"

	"github.com/gin-gonic/gin"
)

// HeaderName carries the caller-supplied API key.
const HeaderName = "X-API-Key"

// RequireAPIKey returns a middleware that gates mutating routes behind the
// configured shared secret. Missing or mismatched key aborts with 401
// before any handler logic runs.
func RequireAPIKey(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(HeaderName))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:  "Unauthorized",
				Detail: "invalid or missing API key",
				Path:   c.Request.URL.Path,
			})
			return
		}
		c.Next()
	}
}
