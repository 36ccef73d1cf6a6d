package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"deadline_tracker_bot/internal/domain/attorney"

	"github.com/lib/pq"
)

// Custom errors
var ErrAttorneyNotFound = fmt.Errorf("attorney not found")
var ErrDuplicateTelegramID = fmt.Errorf("attorney with this Telegram ID already exists")

const uniqueViolation = pq.ErrorCode("23505")

const attorneyColumns = `id, telegram_id, first_name, last_name, email, phone, is_active, created_at, updated_at`

type PostgresAttorneyRepository struct {
	db *sql.DB
}

func NewPostgresAttorneyRepository(db *sql.DB) *PostgresAttorneyRepository {
	return &PostgresAttorneyRepository{db: db}
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
	}
	return false
}

func scanAttorney(row interface{ Scan(...any) error }) (*attorney.Attorney, error) {
	a := &attorney.Attorney{}
	err := row.Scan(&a.ID, &a.TelegramID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *PostgresAttorneyRepository) Create(ctx context.Context, a *attorney.Attorney) error {
	query := `INSERT INTO attorneys (telegram_id, first_name, last_name, email, phone, is_active)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, a.TelegramID, a.FirstName, a.LastName, a.Email, a.Phone, a.IsActive).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "attorneys_telegram_id_key") {
			return ErrDuplicateTelegramID
		}
		return fmt.Errorf("error creating attorney: %w", err)
	}
	return nil
}

func (r *PostgresAttorneyRepository) GetByID(ctx context.Context, id int64) (*attorney.Attorney, error) {
	query := `SELECT ` + attorneyColumns + ` FROM attorneys WHERE id = $1`
	a, err := scanAttorney(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttorneyNotFound
		}
		return nil, fmt.Errorf("error getting attorney by ID: %w", err)
	}
	return a, nil
}

func (r *PostgresAttorneyRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*attorney.Attorney, error) {
	query := `SELECT ` + attorneyColumns + ` FROM attorneys WHERE telegram_id = $1`
	a, err := scanAttorney(r.db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttorneyNotFound
		}
		return nil, fmt.Errorf("error getting attorney by Telegram ID: %w", err)
	}
	return a, nil
}

func (r *PostgresAttorneyRepository) Update(ctx context.Context, a *attorney.Attorney) error {
	query := `UPDATE attorneys
               SET first_name = $1, last_name = $2, email = $3, phone = $4, is_active = $5, updated_at = NOW()
               WHERE id = $6
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, a.FirstName, a.LastName, a.Email, a.Phone, a.IsActive, a.ID).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAttorneyNotFound
		}
		return fmt.Errorf("error updating attorney: %w", err)
	}
	return nil
}

func (r *PostgresAttorneyRepository) list(ctx context.Context, query string) ([]*attorney.Attorney, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing attorneys: %w", err)
	}
	defer rows.Close()

	attorneys := make([]*attorney.Attorney, 0)
	for rows.Next() {
		a, err := scanAttorney(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning attorney: %w", err)
		}
		attorneys = append(attorneys, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attorneys: %w", err)
	}
	return attorneys, nil
}

func (r *PostgresAttorneyRepository) ListActive(ctx context.Context) ([]*attorney.Attorney, error) {
	return r.list(ctx, `SELECT `+attorneyColumns+` FROM attorneys WHERE is_active = TRUE ORDER BY first_name, last_name`)
}

func (r *PostgresAttorneyRepository) ListAll(ctx context.Context) ([]*attorney.Attorney, error) {
	return r.list(ctx, `SELECT `+attorneyColumns+` FROM attorneys ORDER BY id`)
}
