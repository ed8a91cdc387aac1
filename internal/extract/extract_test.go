package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// minimalPDF builds a one-page document with a correct xref table.
func minimalPDF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	offsets := make([]int, 4)

	buf.WriteString("%PDF-1.4\n")
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n",
	}
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		buf.WriteString(obj)
	}

	xrefStart := buf.Len()
	buf.WriteString("xref\n0 4\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i < 4; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefStart)
	return buf.Bytes()
}

func TestValidatePDF(t *testing.T) {
	pages, err := ValidatePDF(minimalPDF(t))
	if err != nil {
		t.Fatalf("ValidatePDF: %v", err)
	}
	if pages != 1 {
		t.Fatalf("expected 1 page, got %d", pages)
	}
}

func TestValidatePDFRejectsGarbage(t *testing.T) {
	_, err := ValidatePDF([]byte("this is a text file"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestValidatePDFRejectsEmpty(t *testing.T) {
	if _, err := ValidatePDF(nil); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestSniffTextNoTextLayer(t *testing.T) {
	text, err := SniffText(context.Background(), minimalPDF(t))
	if err != nil {
		t.Fatalf("SniffText: %v", err)
	}
	if strings.TrimSpace(text) != "" {
		t.Fatalf("expected empty text for page without content, got %q", text)
	}
}

func TestSniffTextRejectsGarbage(t *testing.T) {
	if _, err := SniffText(context.Background(), []byte("nope")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}
