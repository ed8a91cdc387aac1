// Package notify publishes processing events for clients identified by a
// session id. Events are queued for the relay worker, which delivers them to
// the configured webhook.
package notify

import (
	"context"
	"fmt"
	"time"
)

const (
	// TypeCompleted signals a finished extraction.
	TypeCompleted = "ocr.completed"
	// TypeFailed signals an extraction failure.
	TypeFailed = "ocr.failed"

	messageVersion = 1
)

// Event is one notification addressed to a client session.
type Event struct {
	SessionID  string    `json:"sessionId"`
	Type       string    `json:"type"`
	Data       EventData `json:"data"`
	EnqueuedAt string    `json:"enqueuedAt"`
	Version    int       `json:"version"`
}

// EventData carries event details. Message is user-facing and localized the
// way the lab portal expects.
type EventData struct {
	Path    string `json:"path,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// Notifier publishes events.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Completed builds an extraction-success event.
func Completed(sessionID, path string, size int64) Event {
	message := "OCR selesai."
	if path != "" {
		message = fmt.Sprintf("File %s berhasil diproses.", path)
	}
	return Event{
		SessionID:  sessionID,
		Type:       TypeCompleted,
		Data:       EventData{Path: path, Size: size, Message: message},
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    messageVersion,
	}
}

// Failed builds an extraction-failure event.
func Failed(sessionID, path, reason string) Event {
	message := fmt.Sprintf("OCR gagal: %s", reason)
	if path != "" {
		message = fmt.Sprintf("Gagal memproses %s: %s", path, reason)
	}
	return Event{
		SessionID:  sessionID,
		Type:       TypeFailed,
		Data:       EventData{Path: path, Reason: reason, Message: message},
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    messageVersion,
	}
}

// Noop discards events. Used when no queue is configured.
type Noop struct{}

// Publish drops the event.
func (Noop) Publish(ctx context.Context, ev Event) error {
	_ = ctx
	_ = ev
	return nil
}
