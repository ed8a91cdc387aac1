package ocr

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"medocr-backend/internal/shared/metrics"
	"medocr-backend/internal/shared/server/respond"
	"medocr-backend/internal/shared/telemetry"
)

// Handler serves the image OCR endpoint.
type Handler struct {
	Engine    Engine
	Languages []string
}

// NewHandler constructs a Handler.
func NewHandler(engine Engine, languages []string) *Handler {
	return &Handler{Engine: engine, Languages: languages}
}

// RegisterRoutes attaches OCR routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/image/", h.recognizeImage)
	rg.GET("/image/", h.methodHint)
}

func (h *Handler) methodHint(c *gin.Context) {
	respond.Error(c, http.StatusBadRequest, "validation_error",
		"use POST with an image file under the 'image' form key", nil)
}

func (h *Handler) recognizeImage(c *gin.Context) {
	started := metrics.NowMillis()
	metrics.IncOCRRequests()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		metrics.IncOCRFailed()
		if bodyTooLarge(c, err) {
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "image file is required", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		metrics.IncOCRFailed()
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		metrics.IncOCRFailed()
		if bodyTooLarge(c, err) {
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		metrics.IncOCRFailed()
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid image", nil)
		return
	}

	words, err := h.Engine.Recognize(c.Request.Context(), data, h.Languages)
	if err != nil {
		metrics.IncOCRFailed()
		telemetry.Error("ocr recognize failed", map[string]any{
			"file":  fileHeader.Filename,
			"error": err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "text recognition failed", nil)
		return
	}

	metrics.ObserveOCRDurationMs(metrics.NowMillis() - started)
	telemetry.Info("ocr recognized", map[string]any{
		"file":  fileHeader.Filename,
		"words": len(words),
	})

	if words == nil {
		words = []Word{}
	}
	respond.OK(c, gin.H{"results": words})
}

// bodyTooLarge reports whether err came from the capped body reader and, if
// so, responds with the 413 contract shared with the declared-size check.
func bodyTooLarge(c *gin.Context, err error) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds limit", nil)
	return true
}
