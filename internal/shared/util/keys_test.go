package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "report.pdf", want: "report.pdf"},
		{name: "spaces and symbols", input: "lab report (final).pdf", want: "lab_report_final_.pdf"},
		{name: "path separators", input: "a/b\\c.pdf", want: "a_b_c.pdf"},
		{name: "traversal", input: "../../etc/passwd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "only symbols", input: "///", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFileName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SanitizeFileName(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizeFileName(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimestampedName(t *testing.T) {
	got, err := TimestampedName("scan.pdf")
	if err != nil {
		t.Fatalf("TimestampedName: %v", err)
	}
	if !strings.HasSuffix(got, "_scan.pdf") {
		t.Fatalf("expected timestamp prefix on scan.pdf, got %q", got)
	}
}

func TestSwapExt(t *testing.T) {
	if got := SwapExt("1700000000_scan.pdf", ".json"); got != "1700000000_scan.json" {
		t.Fatalf("SwapExt pdf->json = %q", got)
	}
	if got := SwapExt("noext", "json"); got != "noext.json" {
		t.Fatalf("SwapExt noext = %q", got)
	}
}
