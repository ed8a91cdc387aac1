// Package documents persists extracted medical documents.
package documents

import (
	"encoding/json"
	"time"
)

// Document is one processed upload: the normalized payload plus pointers to
// the stored source file.
type Document struct {
	ID         string
	Source     string
	ContentURL string
	Payload    json.RawMessage
	Meta       Meta
	PatientID  string
	CreatedAt  time.Time
}

// Meta describes where the document came from and where its artifacts live.
type Meta struct {
	From             string   `json:"from"`
	LocalFallbackURL string   `json:"local_fallback_url,omitempty"`
	StoragePDFURL    string   `json:"storage_pdf_url,omitempty"`
	StorageJSONURL   string   `json:"storage_json_url,omitempty"`
	SectionOrder     []string `json:"section_order,omitempty"`
	PageCount        int      `json:"page_count,omitempty"`
	HasTextLayer     bool     `json:"has_text_layer"`
}
