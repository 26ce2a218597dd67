package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// securityHeaders sets standard security response headers on every
// response (spec §7: defense-in-depth for the ingress surface).
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

// internalOnly rejects any request that doesn't present the pre-shared
// X-Internal-Key (spec §6: "must not be exposed at the ingress gateway").
// The gateway is expected to never route external traffic to these paths
// in the first place; this check is defense-in-depth, not the only gate.
func internalOnly(internalKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Internal-Key")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(internalKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    errCodeUnauthorized,
				Message: "missing or invalid X-Internal-Key",
			})
			return
		}
		c.Next()
	}
}
