package attorney

import (
	"database/sql"
	"strings"
	"time"
)

// Attorney owns deadlines and receives their reminders.
type Attorney struct {
	ID         int64
	TelegramID int64
	FirstName  string
	LastName   sql.NullString // To handle optional last name
	Email      sql.NullString
	Phone      sql.NullString
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName joins first and last name when the latter is set.
func (a *Attorney) FullName() string {
	if a.LastName.Valid && strings.TrimSpace(a.LastName.String) != "" {
		return a.FirstName + " " + a.LastName.String
	}
	return a.FirstName
}
