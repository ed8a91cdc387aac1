// Package extractions runs the PDF extraction pipeline: validate, call the
// model, store, normalize, persist, notify.
package extractions

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"medocr-backend/internal/documents"
	"medocr-backend/internal/extract"
	"medocr-backend/internal/llm"
	"medocr-backend/internal/normalize"
	"medocr-backend/internal/notify"
	"medocr-backend/internal/patients"
	"medocr-backend/internal/shared/metrics"
	"medocr-backend/internal/shared/storage/object"
	"medocr-backend/internal/shared/telemetry"
	"medocr-backend/internal/shared/util"
)

const (
	storageScope = "ocr"
	sourcePDF    = "pdf"

	patientName     = "OCR Patient"
	patientInitials = "OCR"
)

// Service contains business logic for extractions.
type Service struct {
	Docs     documents.Repo
	Patients patients.Repo
	Store    object.ObjectStore
	LLM      llm.Client
	Notifier notify.Notifier
	Model    string
}

// ProcessInput is one extraction request.
type ProcessInput struct {
	SessionID string
	RequestID string
	FileName  string
	PDF       []byte
}

// Result is the response envelope for a completed extraction.
type Result struct {
	Success        bool               `json:"success"`
	ProcessingTime float64            `json:"processing_time"`
	DocumentID     string             `json:"document_id"`
	PatientID      string             `json:"patient_id"`
	PDFURL         string             `json:"pdf_url"`
	Data           *normalize.Payload `json:"data"`
	RawResponse    string             `json:"raw_response"`
	StorageJSONURL string             `json:"storage_json_url,omitempty"`
}

// Process runs the full pipeline for one uploaded PDF.
func (s *Service) Process(ctx context.Context, in ProcessInput) (Result, error) {
	started := time.Now()
	metrics.IncExtractionStarted()

	res, err := s.process(ctx, in, started)
	if err != nil {
		metrics.IncExtractionFailed()
		s.notifyFailed(ctx, in, err)
		return Result{}, err
	}

	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(float64(time.Since(started)) / float64(time.Millisecond))
	return res, nil
}

func (s *Service) process(ctx context.Context, in ProcessInput, started time.Time) (Result, error) {
	pages, err := extract.ValidatePDF(in.PDF)
	if err != nil {
		return Result{}, err
	}

	// Scanned reports have no text layer; digital PDFs do.
	sniffed, _ := extract.SniffText(ctx, in.PDF)
	hasText := strings.TrimSpace(sniffed) != ""

	if s.LLM == nil {
		return Result{}, llm.ErrNotConfigured
	}

	client := newRetryingLLM(s.LLM, in.RequestID)
	extraction, err := client.ExtractMedicalData(ctx, in.PDF)
	if err != nil {
		return Result{}, err
	}

	storageKey, size, _, err := s.Store.Save(ctx, storageScope, in.FileName, bytes.NewReader(in.PDF))
	if err != nil {
		return Result{}, err
	}
	pdfURL, err := s.Store.URL(ctx, storageKey)
	if err != nil {
		return Result{}, err
	}

	payload := normalize.Document(extraction.Data)
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	jsonKey := util.SwapExt(storageKey, ".json")
	jsonURL := ""
	if _, err := s.Store.SaveWithKey(ctx, jsonKey, "application/json", bytes.NewReader(payloadJSON)); err != nil {
		telemetry.Warn("extraction json store failed", map[string]any{
			"request_id": in.RequestID,
			"key":        jsonKey,
			"error":      err.Error(),
		})
	} else if u, err := s.Store.URL(ctx, jsonKey); err == nil {
		jsonURL = u
	}

	now := time.Now().UTC()
	pat := patients.Patient{
		ID:              uuid.NewString(),
		Name:            patientName,
		SubjectInitials: patientInitials,
		CreatedAt:       now,
	}
	if err := s.Patients.Create(ctx, pat); err != nil {
		return Result{}, err
	}

	meta := documents.Meta{
		From:           modelTag(s.Model),
		StoragePDFURL:  pdfURL,
		StorageJSONURL: jsonURL,
		SectionOrder:   normalize.SectionOrder,
		PageCount:      pages,
		HasTextLayer:   hasText,
	}
	if strings.HasPrefix(pdfURL, "/media/") {
		meta.LocalFallbackURL = pdfURL
	}
	doc := documents.Document{
		ID:         uuid.NewString(),
		Source:     sourcePDF,
		ContentURL: pdfURL,
		Payload:    payloadJSON,
		Meta:       meta,
		PatientID:  pat.ID,
		CreatedAt:  now,
	}
	if err := s.Docs.Create(ctx, doc); err != nil {
		return Result{}, err
	}

	s.notifyCompleted(ctx, in, storageKey, size)

	telemetry.Info("extraction completed", map[string]any{
		"request_id":  in.RequestID,
		"document_id": doc.ID,
		"patient_id":  pat.ID,
		"key":         storageKey,
		"pages":       pages,
	})

	return Result{
		Success:        true,
		ProcessingTime: roundSeconds(time.Since(started)),
		DocumentID:     doc.ID,
		PatientID:      pat.ID,
		PDFURL:         pdfURL,
		Data:           payload,
		RawResponse:    extraction.RawText,
		StorageJSONURL: jsonURL,
	}, nil
}

func (s *Service) notifyCompleted(ctx context.Context, in ProcessInput, path string, size int64) {
	if s.Notifier == nil || in.SessionID == "" {
		return
	}
	if err := s.Notifier.Publish(ctx, notify.Completed(in.SessionID, path, size)); err != nil {
		metrics.IncNotificationsDropped()
		telemetry.Warn("notify publish failed", map[string]any{
			"request_id": in.RequestID,
			"error":      err.Error(),
		})
		return
	}
	metrics.IncNotificationsQueued()
}

func (s *Service) notifyFailed(ctx context.Context, in ProcessInput, cause error) {
	if s.Notifier == nil || in.SessionID == "" {
		return
	}
	if err := s.Notifier.Publish(ctx, notify.Failed(in.SessionID, in.FileName, sanitizeError(cause))); err != nil {
		metrics.IncNotificationsDropped()
		telemetry.Warn("notify publish failed", map[string]any{
			"request_id": in.RequestID,
			"error":      err.Error(),
		})
		return
	}
	metrics.IncNotificationsQueued()
}

func modelTag(model string) string {
	tag := strings.TrimSpace(model)
	if tag == "" {
		return "gemini"
	}
	tag = strings.ReplaceAll(tag, "-", "_")
	return strings.ReplaceAll(tag, ".", "_")
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
