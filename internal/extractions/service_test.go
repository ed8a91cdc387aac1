package extractions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"medocr-backend/internal/documents"
	"medocr-backend/internal/llm"
	"medocr-backend/internal/notify"
	"medocr-backend/internal/patients"
	"medocr-backend/internal/shared/storage/object/local"
)

type staticLLM struct {
	data    map[string]any
	raw     string
	err     error
	calls   int
	errOnce bool
}

func (s *staticLLM) ExtractMedicalData(ctx context.Context, pdf []byte) (llm.Extraction, error) {
	_ = ctx
	_ = pdf
	s.calls++
	if s.err != nil {
		if s.errOnce && s.calls > 1 {
			return llm.Extraction{Data: s.data, RawText: s.raw}, nil
		}
		return llm.Extraction{}, s.err
	}
	return llm.Extraction{Data: s.data, RawText: s.raw}, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *captureNotifier) Publish(ctx context.Context, ev notify.Event) error {
	_ = ctx
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

// testPDF builds a parseable one-page document.
func testPDF(t *testing.T) []byte {
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
	buf.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for i := 1; i < 4; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefStart)
	return buf.Bytes()
}

func newTestService(t *testing.T, client llm.Client, notifier notify.Notifier) (*Service, *documents.MemoryRepo, *patients.MemoryRepo) {
	t.Helper()
	docRepo := documents.NewMemoryRepo()
	patRepo := patients.NewMemoryRepo()
	svc := &Service{
		Docs:     docRepo,
		Patients: patRepo,
		Store:    local.New(t.TempDir()),
		LLM:      client,
		Notifier: notifier,
		Model:    "gemini-2.5-flash",
	}
	return svc, docRepo, patRepo
}

func TestProcessFullPipeline(t *testing.T) {
	client := &staticLLM{
		data: map[string]any{"DEMOGRAPHY": map[string]any{"age": "42"}},
		raw:  `{"DEMOGRAPHY":{"age":"42"}}`,
	}
	notifier := &captureNotifier{}
	svc, docRepo, patRepo := newTestService(t, client, notifier)

	res, err := svc.Process(context.Background(), ProcessInput{
		SessionID: "sess-1",
		RequestID: "req-1",
		FileName:  "lab report.pdf",
		PDF:       testPDF(t),
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	if res.DocumentID == "" || res.PatientID == "" {
		t.Fatalf("expected ids, got %+v", res)
	}
	if res.Data == nil {
		t.Fatal("expected normalized payload")
	}
	if got := res.Data.Section("DEMOGRAPHY")["age"]; got != 42 {
		t.Fatalf("expected normalized age 42, got %v", got)
	}
	if res.RawResponse != client.raw {
		t.Fatalf("unexpected raw response %q", res.RawResponse)
	}
	if !strings.HasPrefix(res.PDFURL, "/media/ocr/") || !strings.HasSuffix(res.PDFURL, "_lab_report.pdf") {
		t.Fatalf("unexpected pdf url %q", res.PDFURL)
	}
	if !strings.HasSuffix(res.StorageJSONURL, ".json") {
		t.Fatalf("unexpected json url %q", res.StorageJSONURL)
	}

	doc, err := docRepo.GetByID(context.Background(), res.DocumentID)
	if err != nil {
		t.Fatalf("document not persisted: %v", err)
	}
	if doc.Source != "pdf" || doc.PatientID != res.PatientID {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Meta.From != "gemini_2_5_flash" {
		t.Fatalf("unexpected meta.from %q", doc.Meta.From)
	}
	if len(doc.Meta.SectionOrder) != 7 || doc.Meta.SectionOrder[0] != "DEMOGRAPHY" {
		t.Fatalf("unexpected section order %v", doc.Meta.SectionOrder)
	}
	if doc.Meta.PageCount != 1 {
		t.Fatalf("unexpected page count %d", doc.Meta.PageCount)
	}
	if doc.Meta.HasTextLayer {
		t.Fatal("expected no text layer for a scan-like document")
	}

	pat, err := patRepo.GetByID(context.Background(), res.PatientID)
	if err != nil {
		t.Fatalf("patient not persisted: %v", err)
	}
	if pat.Name != "OCR Patient" || pat.SubjectInitials != "OCR" {
		t.Fatalf("unexpected patient: %+v", pat)
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.events))
	}
	ev := notifier.events[0]
	if ev.Type != notify.TypeCompleted || ev.SessionID != "sess-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Data.Path == "" {
		t.Fatal("expected storage path in event")
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestService(t, &staticLLM{}, &captureNotifier{})

	_, err := svc.Process(context.Background(), ProcessInput{
		FileName: "notes.txt",
		PDF:      []byte("plain text"),
	})
	if err == nil {
		t.Fatal("expected error for non-pdf payload")
	}
}

func TestProcessNotConfigured(t *testing.T) {
	notifier := &captureNotifier{}
	svc, docRepo, _ := newTestService(t, llm.PlaceholderClient{}, notifier)

	_, err := svc.Process(context.Background(), ProcessInput{
		SessionID: "sess-2",
		FileName:  "report.pdf",
		PDF:       testPDF(t),
	})
	if !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	docs, _ := docRepo.List(context.Background(), 10, 0)
	if len(docs) != 0 {
		t.Fatalf("expected no persisted documents, got %d", len(docs))
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != notify.TypeFailed {
		t.Fatalf("expected failure notification, got %+v", notifier.events)
	}
}

func TestProcessRetriesTransientUpstream(t *testing.T) {
	client := &staticLLM{
		data:    map[string]any{},
		raw:     "{}",
		err:     &llm.UpstreamError{Status: 503, Message: "overloaded"},
		errOnce: true,
	}
	svc, _, _ := newTestService(t, client, nil)

	res, err := svc.Process(context.Background(), ProcessInput{
		FileName: "report.pdf",
		PDF:      testPDF(t),
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success after retry")
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 llm calls, got %d", client.calls)
	}
}

func TestProcessAuthErrorNotRetried(t *testing.T) {
	client := &staticLLM{err: &llm.UpstreamError{Status: 403, Message: "bad key"}}
	svc, _, _ := newTestService(t, client, nil)

	_, err := svc.Process(context.Background(), ProcessInput{
		FileName: "report.pdf",
		PDF:      testPDF(t),
	})
	if !llm.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 llm call, got %d", client.calls)
	}
}

func TestProcessNoSessionSkipsNotify(t *testing.T) {
	notifier := &captureNotifier{}
	svc, _, _ := newTestService(t, &staticLLM{data: map[string]any{}, raw: "{}"}, notifier)

	if _, err := svc.Process(context.Background(), ProcessInput{
		FileName: "report.pdf",
		PDF:      testPDF(t),
	}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.events))
	}
}
