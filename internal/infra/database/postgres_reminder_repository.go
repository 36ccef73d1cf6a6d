// internal/infra/database/postgres_reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"deadline_tracker_bot/internal/domain/deadline"
	"deadline_tracker_bot/internal/domain/reminder"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrReminderNotFound = fmt.Errorf("deadline reminder not found")

const reminderColumns = `id, deadline_id, notify_at, channel, lead_time, sent, sent_at`

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func (r *PostgresReminderRepository) BulkCreate(ctx context.Context, records []*reminder.Record) error {
	if len(records) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bulk create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO deadline_reminders (id, deadline_id, notify_at, channel, lead_time, sent)
                                         VALUES ($1, $2, $3, $4, $5, FALSE)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for bulk create: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.DeadlineID, rec.NotifyAt, rec.Channel, rec.LeadTime); err != nil {
			return fmt.Errorf("error executing statement for bulk create (deadline %s, %s, %s): %w",
				rec.DeadlineID, rec.Channel, rec.NotifyAt.Format(time.RFC3339), err)
		}
	}

	return txn.Commit()
}

func scanReminders(rows *sql.Rows) ([]*reminder.Record, error) {
	records := make([]*reminder.Record, 0)
	for rows.Next() {
		rec := reminder.Record{}
		if err := rows.Scan(&rec.ID, &rec.DeadlineID, &rec.NotifyAt, &rec.Channel, &rec.LeadTime, &rec.Sent, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return records, nil
}

func (r *PostgresReminderRepository) ListByDeadline(ctx context.Context, deadlineID uuid.UUID) ([]*reminder.Record, error) {
	query := `SELECT ` + reminderColumns + ` FROM deadline_reminders
               WHERE deadline_id = $1 ORDER BY notify_at, channel`
	rows, err := r.db.QueryContext(ctx, query, deadlineID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders by deadline: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresReminderRepository) ListDue(ctx context.Context, notifyAtOrBefore time.Time) ([]*reminder.Record, error) {
	query := `SELECT r.id, r.deadline_id, r.notify_at, r.channel, r.lead_time, r.sent, r.sent_at
               FROM deadline_reminders r
               JOIN deadlines d ON d.id = r.deadline_id
               WHERE r.sent = FALSE AND r.notify_at <= $1 AND d.status NOT IN ($2, $3)
               ORDER BY r.notify_at ASC` // Process older ones first
	rows, err := r.db.QueryContext(ctx, query, notifyAtOrBefore, deadline.StatusDone, deadline.StatusSnoozed)
	if err != nil {
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresReminderRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE deadline_reminders SET sent = TRUE, sent_at = $1 WHERE id = $2`, sentAt, id)
	if err != nil {
		return fmt.Errorf("error marking reminder sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrReminderNotFound
	}
	return nil
}

func (r *PostgresReminderRepository) CountPending(ctx context.Context, deadlineIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(deadlineIDs))
	if len(deadlineIDs) == 0 {
		return counts, nil
	}

	query := `SELECT deadline_id, COUNT(*)
               FROM deadline_reminders
               WHERE deadline_id = ANY($1::uuid[]) AND sent = FALSE
               GROUP BY deadline_id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(deadlineIDs)))
	if err != nil {
		return nil, fmt.Errorf("error counting pending reminders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("error scanning pending reminder count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("error iterating pending reminder counts: %w", err)
	}
	return counts, nil
}
