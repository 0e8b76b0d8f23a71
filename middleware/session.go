package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "leadlens_session"
	sessionMaxAge = 30 * 24 * 60 * 60
)

// SessionMiddleware gives every browser a stable session ID. The lead
// service uses it to allow one analysis in flight per session.
func SessionMiddleware(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, sessionMaxAge, "/", "", secure, true)
		}
		c.Set("sessionID", id)
		c.Next()
	}
}

// SessionID returns the session set by SessionMiddleware, or "".
func SessionID(c *gin.Context) string {
	return c.GetString("sessionID")
}
