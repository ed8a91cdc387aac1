package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    source,
    content_url,
    payload,
    meta,
    patient_id,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	meta, err := json.Marshal(doc.Meta)
	if err != nil {
		return err
	}

	var patientID sql.NullString
	if doc.PatientID != "" {
		patientID = sql.NullString{String: doc.PatientID, Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Source,
		doc.ContentURL,
		[]byte(doc.Payload),
		meta,
		patientID,
		doc.CreatedAt,
	)
	return err
}

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT id, source, content_url, payload, meta, patient_id, created_at
FROM documents
WHERE id = $1`

	var doc Document
	var payload []byte
	var meta []byte
	var patientID sql.NullString
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.Source,
		&doc.ContentURL,
		&payload,
		&meta,
		&patientID,
		&doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	doc.Payload = json.RawMessage(payload)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.Meta); err != nil {
			return Document{}, err
		}
	}
	doc.PatientID = patientID.String
	return doc, nil
}

// List returns documents newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	const query = `
SELECT id, source, content_url, payload, meta, patient_id, created_at
FROM documents
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		var payload []byte
		var meta []byte
		var patientID sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.Source,
			&doc.ContentURL,
			&payload,
			&meta,
			&patientID,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		doc.Payload = json.RawMessage(payload)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Meta); err != nil {
				return nil, err
			}
		}
		doc.PatientID = patientID.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
