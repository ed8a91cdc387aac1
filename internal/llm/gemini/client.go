// Package gemini implements llm.Client against the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"medocr-backend/internal/llm"
	"medocr-backend/internal/shared/telemetry"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls the Gemini REST API with an API key.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Gemini client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEMINI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// ExtractMedicalData sends the PDF bytes with the extraction prompt and parses
// the JSON object from the response text.
func (c *Client) ExtractMedicalData(ctx context.Context, pdf []byte) (llm.Extraction, error) {
	temp := float32(0)
	reqBody := generateRequest{
		Contents: []generateContent{{
			Parts: []generatePart{
				{Text: extractionPrompt},
				{InlineData: &inlineData{
					MimeType: "application/pdf",
					Data:     base64.StdEncoding.EncodeToString(pdf),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:      &temp,
			ResponseMimeType: "application/json",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Extraction{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return llm.Extraction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Extraction{}, fmt.Errorf("gemini request timeout: %w", err)
		}
		return llm.Extraction{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Extraction{}, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Extraction{}, fmt.Errorf("gemini response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Extraction{}, &llm.UpstreamError{Status: parsed.Error.Code, Message: parsed.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return llm.Extraction{}, &llm.UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if len(parsed.Candidates) == 0 {
		return llm.Extraction{}, fmt.Errorf("gemini response missing candidates")
	}
	logUsage(c.model, parsed.UsageMetadata)

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := cleanResponseText(sb.String())
	if text == "" {
		return llm.Extraction{}, fmt.Errorf("gemini response empty content")
	}

	data, err := parseObject(text)
	if err != nil {
		return llm.Extraction{}, fmt.Errorf("gemini payload parse: %w", err)
	}
	return llm.Extraction{Data: data, RawText: text}, nil
}

var (
	fenceOpen  = regexp.MustCompile("(?m)^```json\\s*")
	fenceBare  = regexp.MustCompile("(?m)^```\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
	// Greedy, so the match runs from the first brace to the last one.
	trailingObject = regexp.MustCompile(`(?s)\{.*\}\s*$`)
)

func cleanResponseText(text string) string {
	text = strings.TrimSpace(text)
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceBare.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	return text
}

// parseObject decodes the response text, falling back to the trailing JSON
// object when the model wrapped it in prose. No object at all yields an
// empty map.
func parseObject(text string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}
	m := trailingObject.FindString(text)
	if m == "" {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal([]byte(m), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func logUsage(model string, usage *struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}) {
	fields := map[string]any{"model": model}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokenCount
		fields["candidate_tokens"] = usage.CandidatesTokenCount
		fields["total_tokens"] = usage.TotalTokenCount
	}
	telemetry.Info("gemini.response", fields)
}

var _ llm.Client = (*Client)(nil)
