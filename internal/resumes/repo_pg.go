package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert writes a record; created_at is assigned by the database.
func (r *PGRepo) Insert(ctx context.Context, rec NewRecord) (Record, error) {
	const query = `
INSERT INTO resumes (id, name, resume_url, summary_of_resume, structured_data)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`

	payload, err := marshalJSONB(rec.StructuredData)
	if err != nil {
		return Record{}, fmt.Errorf("marshal structured data: %w", err)
	}

	out := Record{
		ID:              rec.ID,
		Name:            rec.Name,
		ResumeURL:       rec.ResumeURL,
		SummaryOfResume: rec.SummaryOfResume,
		StructuredData:  rec.StructuredData,
	}
	if err := r.DB.QueryRowContext(ctx, query,
		rec.ID,
		rec.Name,
		rec.ResumeURL,
		rec.SummaryOfResume,
		payload,
	).Scan(&out.CreatedAt); err != nil {
		return Record{}, err
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

// GetByID returns a record by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	const query = `
SELECT id, name, resume_url, summary_of_resume, structured_data, created_at
FROM resumes
WHERE id = $1
LIMIT 1`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns records newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Record, error) {
	limit, offset = clampPage(limit, offset)

	const query = `
SELECT id, name, resume_url, summary_of_resume, structured_data, created_at
FROM resumes
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var structured sql.NullString
	if err := row.Scan(&rec.ID, &rec.Name, &rec.ResumeURL, &rec.SummaryOfResume, &structured, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	if structured.Valid && structured.String != "" {
		if err := json.Unmarshal([]byte(structured.String), &rec.StructuredData); err != nil {
			return Record{}, fmt.Errorf("decode structured data for %s: %w", rec.ID, err)
		}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

// marshalJSONB encodes value for a nullable JSONB column; nil stays NULL.
func marshalJSONB(value map[string]any) (any, error) {
	if value == nil {
		return nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return b, nil
}

var _ Repo = (*PGRepo)(nil)
