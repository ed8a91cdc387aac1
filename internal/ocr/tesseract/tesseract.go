// Package tesseract provides the gosseract-backed OCR engine.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"medocr-backend/internal/ocr"
)

// Engine runs Tesseract through gosseract. A fresh client is created per
// recognition call; the client itself is not safe for concurrent use.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs word-level OCR on the image bytes.
func (e *Engine) Recognize(ctx context.Context, image []byte, languages []string) ([]ocr.Word, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}

	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		words = append(words, ocr.Word{
			Box: ocr.BoxFromRect(
				float64(b.Box.Min.X),
				float64(b.Box.Min.Y),
				float64(b.Box.Dx()),
				float64(b.Box.Dy()),
			),
			Text:       b.Word,
			Confidence: b.Confidence / 100.0,
		})
	}
	return words, nil
}
