// Package patients persists patient records created from extractions.
package patients

import (
	"context"
	"errors"
	"time"
)

// Patient is a minimal subject record tied to an extracted document.
type Patient struct {
	ID              string
	Name            string
	SubjectInitials string
	CreatedAt       time.Time
}

// ErrNotFound is returned when a patient does not exist.
var ErrNotFound = errors.New("patient not found")

// Repo defines persistence operations for patients.
type Repo interface {
	Create(ctx context.Context, pat Patient) error
	GetByID(ctx context.Context, patientID string) (Patient, error)
}
