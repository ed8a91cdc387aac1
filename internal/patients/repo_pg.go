package patients

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new patient.
func (r *PGRepo) Create(ctx context.Context, pat Patient) error {
	const query = `
INSERT INTO patients (id, name, subject_initials, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.DB.ExecContext(ctx, query, pat.ID, pat.Name, pat.SubjectInitials, pat.CreatedAt)
	return err
}

// GetByID returns a patient by ID.
func (r *PGRepo) GetByID(ctx context.Context, patientID string) (Patient, error) {
	const query = `
SELECT id, name, subject_initials, created_at
FROM patients
WHERE id = $1`

	var pat Patient
	err := r.DB.QueryRowContext(ctx, query, patientID).Scan(
		&pat.ID,
		&pat.Name,
		&pat.SubjectInitials,
		&pat.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Patient{}, ErrNotFound
	}
	if err != nil {
		return Patient{}, err
	}
	return pat, nil
}

var _ Repo = (*PGRepo)(nil)
