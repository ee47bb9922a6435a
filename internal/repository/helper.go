package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories are constructed on the connection and rebound to a
// transaction with WithTx when a use case opens its unit of work.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

// formatDay renders a wall-clock day for DATE columns.
func formatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// formatTime renders a timestamp for DATETIME columns.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullDay renders an optional day for nullable DATE columns.
func nullDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDay(*t)
}

// nullTime renders an optional timestamp for nullable DATETIME columns.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// scanNullTime parses a nullable DATETIME column back into *time.Time.
func scanNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
