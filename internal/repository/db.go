package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgForeignKeyViolation is the SQLSTATE raised when a referenced row is
// missing or still referenced.
const pgForeignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// nullTime maps the zero time to NULL so the column default applies.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// syncSequence moves a serial column's sequence past rows inserted with an
// explicit ID. table and column are always package constants.
func syncSequence(ctx context.Context, pool *pgxpool.Pool, table, column string) error {
	query := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE((SELECT MAX(%s) FROM %s), 1))",
		table, column, column, table,
	)
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to sync %s sequence: %w", table, err)
	}
	return nil
}
