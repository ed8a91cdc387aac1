// Package extract validates uploaded PDFs before they are sent to the model.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when the payload does not parse as a PDF document.
var ErrNotPDF = errors.New("not a pdf document")

// ValidatePDF parses the payload and returns its page count.
func ValidatePDF(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrNotPDF
	}
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return pdfReader.NumPage(), nil
}

// SniffText extracts the document's plain text. Best effort: scanned PDFs
// with no text layer return an empty string without error.
func SniffText(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", nil
	}
	return buf.String(), nil
}
