package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medocr-backend/internal/documents"
	"medocr-backend/internal/extractions"
	"medocr-backend/internal/llm"
	"medocr-backend/internal/patients"
	"medocr-backend/internal/shared/config"
	"medocr-backend/internal/shared/storage/object/local"
)

func newRouterUnderTest(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		Port:            "8000",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		MaxUploadBytes:  1 << 10,
	}
	svc := &extractions.Service{
		Docs:     documents.NewMemoryRepo(),
		Patients: patients.NewMemoryRepo(),
		Store:    local.New(cfg.LocalStoreDir),
		LLM:      llm.PlaceholderClient{},
	}
	return NewRouter(RouterDeps{
		Config:            cfg,
		ExtractionHandler: extractions.NewHandler(svc),
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newRouterUnderTest(t)

	req := httptest.NewRequest(http.MethodGet, "/ocr/health/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRouterUnderTest(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ocr_requests_total") {
		t.Fatalf("expected counter exposition, got %s", w.Body.String())
	}
}

func TestOversizedUploadRejected(t *testing.T) {
	r := newRouterUnderTest(t)

	req := httptest.NewRequest(http.MethodPost, "/ocr/", bytes.NewReader(make([]byte, 4<<10)))
	req.Header.Set("Content-Type", "application/pdf")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ":8000"},
		{in: "9000", want: ":9000"},
		{in: ":9000", want: ":9000"},
	}
	for _, tt := range tests {
		if got := Addr(tt.in); got != tt.want {
			t.Fatalf("Addr(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
