package extractions

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"medocr-backend/internal/extract"
	"medocr-backend/internal/llm"
	"medocr-backend/internal/shared/server/middleware"
	"medocr-backend/internal/shared/server/respond"
	"medocr-backend/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the extractions service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/", h.extractPDF)
	rg.GET("/", h.methodHint)
}

func (h *Handler) methodHint(c *gin.Context) {
	respond.Error(c, http.StatusBadRequest, "validation_error",
		"use POST with a PDF file under the 'pdf' form key", nil)
}

func (h *Handler) extractPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		if bodyTooLarge(c, err) {
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "pdf file is required", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		if bodyTooLarge(c, err) {
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}

	res, err := h.Svc.Process(c.Request.Context(), ProcessInput{
		SessionID: middleware.SessionIDFromContext(c),
		RequestID: middleware.RequestIDFromContext(c),
		FileName:  fileHeader.Filename,
		PDF:       data,
	})
	if err != nil {
		h.respondError(c, fileHeader.Filename, err)
		return
	}

	respond.OK(c, res)
}

func (h *Handler) respondError(c *gin.Context, fileName string, err error) {
	switch {
	case errors.Is(err, extract.ErrNotPDF):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid pdf", nil)
	case errors.Is(err, llm.ErrNotConfigured):
		respond.Error(c, http.StatusServiceUnavailable, "extractor_unavailable", "extraction model is not configured", nil)
	case isUpstream(err):
		respond.Error(c, http.StatusBadGateway, "upstream_error", "extraction model request failed", nil)
	default:
		telemetry.Error("extraction failed", map[string]any{
			"file":  fileName,
			"error": sanitizeError(err),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
	}
}

func isUpstream(err error) bool {
	var ue *llm.UpstreamError
	return errors.As(err, &ue)
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
