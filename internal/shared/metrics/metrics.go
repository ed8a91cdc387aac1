package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ocrRequestsTotal     atomic.Uint64
	ocrFailedTotal       atomic.Uint64
	extractionStarted    atomic.Uint64
	extractionCompleted  atomic.Uint64
	extractionFailed     atomic.Uint64
	notificationsQueued  atomic.Uint64
	notificationsDropped atomic.Uint64

	ocrDuration        = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000})
	extractionDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncOCRRequests increments the OCR request counter.
func IncOCRRequests() {
	ocrRequestsTotal.Add(1)
}

// IncOCRFailed increments the OCR failure counter.
func IncOCRFailed() {
	ocrFailedTotal.Add(1)
}

// IncExtractionStarted increments the started counter.
func IncExtractionStarted() {
	extractionStarted.Add(1)
}

// IncExtractionCompleted increments the completed counter.
func IncExtractionCompleted() {
	extractionCompleted.Add(1)
}

// IncExtractionFailed increments the failed counter.
func IncExtractionFailed() {
	extractionFailed.Add(1)
}

// IncNotificationsQueued increments the queued-notification counter.
func IncNotificationsQueued() {
	notificationsQueued.Add(1)
}

// IncNotificationsDropped increments the dropped-notification counter.
func IncNotificationsDropped() {
	notificationsDropped.Add(1)
}

// ObserveOCRDurationMs records an OCR pass duration in milliseconds.
func ObserveOCRDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	ocrDuration.Observe(value)
}

// ObserveExtractionDurationMs records an extraction duration in milliseconds.
func ObserveExtractionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "ocr_requests_total", "Total OCR image requests", ocrRequestsTotal.Load())
	writeCounter(&buf, "ocr_failed_total", "Total OCR image requests that failed", ocrFailedTotal.Load())
	writeCounter(&buf, "extraction_started_total", "Total PDF extractions started", extractionStarted.Load())
	writeCounter(&buf, "extraction_completed_total", "Total PDF extractions completed", extractionCompleted.Load())
	writeCounter(&buf, "extraction_failed_total", "Total PDF extractions failed", extractionFailed.Load())
	writeCounter(&buf, "notifications_queued_total", "Total session notifications queued", notificationsQueued.Load())
	writeCounter(&buf, "notifications_dropped_total", "Total session notifications dropped", notificationsDropped.Load())
	writeHistogram(&buf, "ocr_duration_ms", "OCR pass duration in milliseconds", ocrDuration.Snapshot())
	writeHistogram(&buf, "extraction_duration_ms", "Extraction duration in milliseconds", extractionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
