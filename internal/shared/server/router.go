package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medocr-backend/internal/extractions"
	"medocr-backend/internal/ocr"
	"medocr-backend/internal/shared/config"
	"medocr-backend/internal/shared/metrics"
	"medocr-backend/internal/shared/server/middleware"
	"medocr-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config            config.Config
	OCRHandler        *ocr.Handler
	ExtractionHandler *extractions.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Session(),
		middleware.BodyLimit(deps.Config.MaxUploadBytes),
		middleware.RateLimit(defaultRateLimits()),
	)

	api := r.Group("/ocr")
	api.GET("/health/", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.OCRHandler != nil {
		deps.OCRHandler.RegisterRoutes(api)
	}
	if deps.ExtractionHandler != nil {
		deps.ExtractionHandler.RegisterRoutes(api)
	}

	r.GET("/metrics", metrics.Handler())

	if deps.Config.ObjectStoreType == "local" {
		r.Static("/media", deps.Config.LocalStoreDir)
	}

	return r
}

func defaultRateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"EXTRACT": {Rate: 0.5, Burst: 5},
			"OCR":     {Rate: 2, Burst: 10},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			switch {
			case strings.HasPrefix(c.FullPath(), "/ocr/image"):
				return "OCR"
			case strings.HasPrefix(c.FullPath(), "/ocr"):
				return "EXTRACT"
			default:
				return ""
			}
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
