package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	records "marketplace-admin/internal/records/domain"
)

// Repository mirrors marketplace records in the marketplace_records table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures the repository.
type Option func(*Repository)

// WithNow overrides the clock used for synced_at.
func WithNow(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB, opts ...Option) *Repository {
	repo := &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// List returns the mirrored records of a resource in upstream order.
func (r *Repository) List(ctx context.Context, resource records.Resource) ([]records.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("records repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT payload
FROM marketplace_records
WHERE resource = $1
ORDER BY position ASC`, resource.Name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []records.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		record, err := records.DecodeRecord(payload)
		if err != nil {
			return nil, fmt.Errorf("records repo: decode %s: %w", resource.Name, err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Replace swaps the mirrored records of a resource in one transaction.
func (r *Repository) Replace(ctx context.Context, resource records.Resource, list []records.Record) error {
	if r == nil || r.db == nil {
		return errors.New("records repo: nil db")
	}
	if resource.Name == "" {
		return records.ErrEmptyResourceName
	}
	syncedAt := r.now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM marketplace_records WHERE resource = $1`, resource.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, record := range list {
		if record == nil {
			_ = tx.Rollback()
			return records.ErrNilRecord
		}
		payload, err := json.Marshal(record)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("records repo: encode %s[%d]: %w", resource.Name, i, err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO marketplace_records (
	resource, position, record_id, payload, synced_at
) VALUES ($1,$2,$3,$4,$5)`,
			resource.Name, i, record.ID(), string(payload), syncedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of mirrored records across resources.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("records repo: nil db")
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM marketplace_records`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
