package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Freeeeeet/interview_autopilot/internal/store"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so a repository can
// run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// IsNotFound reports whether err is a "no rows" result.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// MapError translates constraint violations into store errors.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return errors.Join(store.ErrConflict, err)
	case foreignKeyViolation:
		return errors.Join(store.ErrForeignKey, err)
	}
	return err
}

// ExecAffected runs a command and returns the number of affected rows.
func ExecAffected(ctx context.Context, db DBTX, query string, args ...any) (int64, error) {
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return 0, MapError(err)
	}
	return tag.RowsAffected(), nil
}
