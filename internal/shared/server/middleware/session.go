package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionIDKey = "sessionId"

// Session captures the caller's session identifier, if any, so completion
// notifications can be routed back to the originating browser session. The
// cookie name matches what the frontend sends; the header is for API callers.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Session-Id"))
		if id == "" {
			if cookie, err := c.Cookie("sessionid"); err == nil {
				id = strings.TrimSpace(cookie)
			}
		}
		if id != "" {
			c.Set(sessionIDKey, id)
		}
		c.Next()
	}
}

// SessionIDFromContext fetches the session ID stored by Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
