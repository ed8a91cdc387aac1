package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

const serviceName = "medocr-backend"

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	emit(os.Stdout, "info", msg, fields)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	emit(os.Stdout, "warn", msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	emit(os.Stderr, "error", msg, fields)
}

func emit(w io.Writer, level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+4)
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["service"] = serviceName
	entry["msg"] = msg
	for k, v := range fields {
		entry[k] = v
	}
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, `{"ts":"%s","level":"error","msg":"logger marshal failed","err":%q}`+"\n", time.Now().UTC().Format(time.RFC3339), err.Error())
		return
	}
	fmt.Fprintln(w, string(data))
}
