package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medocr-backend/internal/llm"
)

func TestCleanResponseText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "leading whitespace", in: "  \n{\"a\":1}  ", want: `{"a":1}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanResponseText(tt.in); got != tt.want {
				t.Fatalf("cleanResponseText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseObjectSalvagesTrailingJSON(t *testing.T) {
	got, err := parseObject("Here is the result:\n{\"DEMOGRAPHY\": {\"age\": 30}}")
	if err != nil {
		t.Fatalf("parseObject: %v", err)
	}
	demo, ok := got["DEMOGRAPHY"].(map[string]any)
	if !ok || demo["age"] != float64(30) {
		t.Fatalf("unexpected parse: %v", got)
	}
}

func TestParseObjectNoObjectYieldsEmptyMap(t *testing.T) {
	got, err := parseObject("the model refused")
	if err != nil {
		t.Fatalf("parseObject: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestExtractMedicalData(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "```json\n{\"SEROLOGY\":{\"hiv\":\"Non Reaktif\"}}\n```"}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := &Client{
		apiKey:     "test-key",
		model:      "gemini-2.5-flash",
		baseURL:    srv.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}

	res, err := c.ExtractMedicalData(context.Background(), []byte("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("ExtractMedicalData: %v", err)
	}
	sero, ok := res.Data["SEROLOGY"].(map[string]any)
	if !ok || sero["hiv"] != "Non Reaktif" {
		t.Fatalf("unexpected data: %v", res.Data)
	}
	if res.RawText != `{"SEROLOGY":{"hiv":"Non Reaktif"}}` {
		t.Fatalf("unexpected raw text: %q", res.RawText)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected request shape: %+v", captured)
	}
	if captured.Contents[0].Parts[1].InlineData == nil ||
		captured.Contents[0].Parts[1].InlineData.MimeType != "application/pdf" {
		t.Fatalf("expected inline pdf part, got %+v", captured.Contents[0].Parts)
	}
	if captured.GenerationConfig.Temperature == nil || *captured.GenerationConfig.Temperature != 0 {
		t.Fatalf("expected temperature 0, got %+v", captured.GenerationConfig.Temperature)
	}
	if captured.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected json response mime type")
	}
}

func TestExtractMedicalDataAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"},
		})
	}))
	defer srv.Close()

	c := &Client{
		apiKey:     "bad-key",
		model:      "gemini-2.5-flash",
		baseURL:    srv.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}

	_, err := c.ExtractMedicalData(context.Background(), []byte("%PDF"))
	if err == nil {
		t.Fatal("expected error")
	}
	var ue *llm.UpstreamError
	if !errors.As(err, &ue) || ue.Status != 403 {
		t.Fatalf("expected upstream 403, got %v", err)
	}
	if !llm.IsAuthError(err) {
		t.Fatalf("expected auth classification for %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", "gemini-2.5-flash"); err == nil {
		t.Fatal("expected error for missing key")
	}
	if _, err := NewClient("key", ""); err == nil {
		t.Fatal("expected error for missing model")
	}
}
