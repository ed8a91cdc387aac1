// Package ocr defines the text-recognition contract and the HTTP surface for
// image OCR requests.
package ocr

import "context"

// Word is one recognized text fragment. Box is the quadrilateral around the
// fragment in pixel coordinates, ordered top-left, top-right, bottom-right,
// bottom-left. Confidence is in [0, 1].
type Word struct {
	Box        [4][2]float64 `json:"box"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
}

// Engine recognizes text in an image. Implementations must be safe for
// concurrent use; the server shares one engine across requests.
type Engine interface {
	Recognize(ctx context.Context, image []byte, languages []string) ([]Word, error)
}

// BoxFromRect builds the quadrilateral for an axis-aligned rectangle.
func BoxFromRect(x, y, w, h float64) [4][2]float64 {
	return [4][2]float64{
		{x, y},
		{x + w, y},
		{x + w, y + h},
		{x, y + h},
	}
}
