// Package llm abstracts model providers for medical document extraction.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Extraction is the provider output for one document.
type Extraction struct {
	// Data is the parsed JSON object, keyed by section.
	Data map[string]any
	// RawText is the model's response text after fence cleanup.
	RawText string
}

// Client extracts structured medical data from a PDF.
type Client interface {
	ExtractMedicalData(ctx context.Context, pdf []byte) (Extraction, error)
}

// ErrNotConfigured is returned when no provider credentials are set.
var ErrNotConfigured = errors.New("extraction model not configured")

// UpstreamError reports a non-success response from the provider API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("model api error: status %d: %s", e.Status, e.Message)
}

// IsAuthError reports whether err is an upstream credential failure.
func IsAuthError(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status == 401 || ue.Status == 403
	}
	return false
}

// PlaceholderClient is used when no API key is configured.
type PlaceholderClient struct{}

// ExtractMedicalData returns ErrNotConfigured.
func (PlaceholderClient) ExtractMedicalData(ctx context.Context, pdf []byte) (Extraction, error) {
	_ = ctx
	_ = pdf
	return Extraction{}, ErrNotConfigured
}
