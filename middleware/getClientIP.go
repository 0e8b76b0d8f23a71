package middleware

import (
	"github.com/gin-gonic/gin"
)

// getClientIP keys the rate limiter and request logs. Forwarding headers
// only count when the request comes from a proxy registered with
// Engine.SetTrustedProxies; otherwise the socket address is used.
func getClientIP(c *gin.Context) string {
	return c.ClientIP()
}
