// internal/infra/database/postgres_deadline_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"deadline_tracker_bot/internal/domain/deadline"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array
)

var ErrDeadlineNotFound = fmt.Errorf("deadline not found")

const deadlineColumns = `id, case_id, case_caption, owner_id, due_at, timezone, priority, status, snooze_until, created_at, updated_at`

type PostgresDeadlineRepository struct {
	db *sql.DB
}

func NewPostgresDeadlineRepository(db *sql.DB) *PostgresDeadlineRepository {
	return &PostgresDeadlineRepository{db: db}
}

func scanDeadline(row interface{ Scan(...any) error }) (*deadline.Deadline, error) {
	d := &deadline.Deadline{}
	err := row.Scan(
		&d.ID, &d.CaseID, &d.CaseCaption, &d.OwnerID, &d.DueAt, &d.Timezone,
		&d.Priority, &d.Status, &d.SnoozeUntil, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (r *PostgresDeadlineRepository) Create(ctx context.Context, d *deadline.Deadline) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	query := `INSERT INTO deadlines (id, case_id, case_caption, owner_id, due_at, timezone, priority, status, snooze_until)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		d.ID, d.CaseID, d.CaseCaption, d.OwnerID, d.DueAt, d.Timezone, d.Priority, d.Status, d.SnoozeUntil,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating deadline: %w", err)
	}
	return nil
}

func (r *PostgresDeadlineRepository) GetByID(ctx context.Context, id uuid.UUID) (*deadline.Deadline, error) {
	query := `SELECT ` + deadlineColumns + ` FROM deadlines WHERE id = $1`
	d, err := scanDeadline(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeadlineNotFound
		}
		return nil, fmt.Errorf("error getting deadline by ID: %w", err)
	}
	return d, nil
}

func (r *PostgresDeadlineRepository) Update(ctx context.Context, d *deadline.Deadline) error {
	query := `UPDATE deadlines
               SET case_caption = $1, owner_id = $2, due_at = $3, priority = $4, status = $5, snooze_until = $6, updated_at = NOW()
               WHERE id = $7
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		d.CaseCaption, d.OwnerID, d.DueAt, d.Priority, d.Status, d.SnoozeUntil, d.ID,
	).Scan(&d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDeadlineNotFound
		}
		return fmt.Errorf("error updating deadline: %w", err)
	}
	return nil
}

func (r *PostgresDeadlineRepository) query(ctx context.Context, query string, args ...any) ([]*deadline.Deadline, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying deadlines: %w", err)
	}
	defer rows.Close()

	deadlines := make([]*deadline.Deadline, 0)
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning deadline row: %w", err)
		}
		deadlines = append(deadlines, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deadline rows: %w", err)
	}
	return deadlines, nil
}

func (r *PostgresDeadlineRepository) ListAll(ctx context.Context) ([]*deadline.Deadline, error) {
	return r.query(ctx, `SELECT `+deadlineColumns+` FROM deadlines ORDER BY due_at`)
}

func (r *PostgresDeadlineRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*deadline.Deadline, error) {
	return r.query(ctx, `SELECT `+deadlineColumns+` FROM deadlines WHERE owner_id = $1 ORDER BY due_at`, ownerID)
}

func (r *PostgresDeadlineRepository) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status deadline.Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE deadlines
               SET status = $1, snooze_until = NULL, updated_at = NOW()
               WHERE id = ANY($2::uuid[]) AND status != $1`
	res, err := r.db.ExecContext(ctx, query, status, pq.Array(uuidStrings(ids)))
	if err != nil {
		return 0, fmt.Errorf("error bulk updating deadline status: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresDeadlineRepository) MarkMissed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE deadlines SET status = $1, updated_at = NOW()
               WHERE status = $2 AND due_at < $3`
	res, err := r.db.ExecContext(ctx, query, deadline.StatusMissed, deadline.StatusOpen, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error marking missed deadlines: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresDeadlineRepository) ReopenSnoozed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE deadlines SET status = $1, snooze_until = NULL, updated_at = NOW()
               WHERE status = $2 AND snooze_until IS NOT NULL AND snooze_until <= $3`
	res, err := r.db.ExecContext(ctx, query, deadline.StatusOpen, deadline.StatusSnoozed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error reopening snoozed deadlines: %w", err)
	}
	return res.RowsAffected()
}
