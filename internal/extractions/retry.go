package extractions

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"medocr-backend/internal/llm"
	"medocr-backend/internal/shared/telemetry"
)

const llmRetryBaseDelay = 300 * time.Millisecond

// retryingLLM retries one transient upstream failure before giving up.
type retryingLLM struct {
	base      llm.Client
	requestID string
}

func newRetryingLLM(base llm.Client, requestID string) llm.Client {
	if base == nil {
		return nil
	}
	return retryingLLM{base: base, requestID: requestID}
}

func (r retryingLLM) ExtractMedicalData(ctx context.Context, pdf []byte) (llm.Extraction, error) {
	resp, err := r.base.ExtractMedicalData(ctx, pdf)
	if err == nil || !shouldRetryLLM(err) {
		return resp, err
	}

	telemetry.Warn("llm retry", map[string]any{
		"attempt":    1,
		"request_id": r.requestID,
		"error":      sanitizeError(err),
	})
	select {
	case <-time.After(llmRetryBaseDelay):
	case <-ctx.Done():
		return llm.Extraction{}, ctx.Err()
	}

	return r.base.ExtractMedicalData(ctx, pdf)
}

func shouldRetryLLM(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, llm.ErrNotConfigured) || llm.IsAuthError(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var ue *llm.UpstreamError
	if errors.As(err, &ue) {
		return ue.Status >= 500 || ue.Status == 429
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "gemini") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
