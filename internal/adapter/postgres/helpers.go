package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/crm/internal/domain"
)

// SQLSTATE codes and classes mapped onto domain errors.
const (
	pgUniqueViolation = "23505"
	pgDataException   = "22"
)

// scannable is satisfied by pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// orEmpty makes nil slices encode as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// wrapErr annotates err with the operation and attaches the matching domain
// sentinel: no rows is ErrNotFound, a unique violation ErrConflict, and a
// data exception (overflow, bad literal) ErrValidation with the server's text.
func wrapErr(err error, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrConflict)
		case strings.HasPrefix(pgErr.Code, pgDataException):
			return fmt.Errorf("%s: %w", op, domain.Validationf("%s", pgErr.Message))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOne turns an Exec that touched no rows into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return wrapErr(err, format, args...)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return nil
}
