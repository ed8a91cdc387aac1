package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medocr-backend/internal/shared/server/respond"
	"medocr-backend/internal/shared/telemetry"
)

// BodyLimit rejects write requests whose declared length exceeds maxBytes and
// caps the body reader for requests of unknown length. Handlers that hit the
// cap see *http.MaxBytesError from their body reads.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		if declared := c.Request.ContentLength; declared > maxBytes {
			telemetry.Warn("request.too_large", map[string]any{
				"request_id":     RequestIDFromContext(c),
				"path":           c.Request.URL.Path,
				"content_length": declared,
				"max_bytes":      maxBytes,
				"client_ip":      c.ClientIP(),
			})
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds limit", gin.H{
				"maxBytes": maxBytes,
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
