package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-ingest/internal/inference"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, request_id, status, ok, error_message, file_name, source, profile, created_at, completed_at`

// Create inserts a new queued record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	const query = `
INSERT INTO resume_analyses (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	args, err := recordArgs(rec)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}

// Save upserts a completed record. created_at of an existing row is kept.
func (r *PGRepo) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	const query = `
INSERT INTO resume_analyses (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	ok = EXCLUDED.ok,
	error_message = EXCLUDED.error_message,
	profile = EXCLUDED.profile,
	completed_at = EXCLUDED.completed_at`
	args, err := recordArgs(rec)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns a record by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	const query = `
SELECT ` + recordColumns + `
FROM resume_analyses
WHERE id = $1
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// List returns records newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + recordColumns + `
FROM resume_analyses
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var errorMessage sql.NullString
	var profile []byte
	var completedAt sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.RequestID,
		&rec.Status,
		&rec.OK,
		&errorMessage,
		&rec.FileName,
		&rec.Source,
		&profile,
		&rec.CreatedAt,
		&completedAt,
	); err != nil {
		return Record{}, err
	}
	rec.Error = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		rec.CompletedAt = &t
	}
	if len(profile) > 0 {
		var p inference.Profile
		if err := json.Unmarshal(profile, &p); err != nil {
			return Record{}, fmt.Errorf("decode profile for %s: %w", rec.ID, err)
		}
		rec.Profile = &p
	}
	return rec, nil
}

func recordArgs(rec Record) ([]any, error) {
	profile, err := marshalProfile(rec.Profile)
	if err != nil {
		return nil, err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return []any{
		rec.ID,
		rec.RequestID,
		rec.Status,
		rec.OK,
		nullString(rec.Error),
		rec.FileName,
		rec.Source,
		profile,
		createdAt,
		nullTime(rec.CompletedAt),
	}, nil
}

func marshalProfile(p *inference.Profile) (any, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
