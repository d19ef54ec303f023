package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skysurvey-labs/exodb/pkg/apperrors"
)

// PostgreSQL error codes surfaced by the schema's constraints.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translateError maps PostgreSQL constraint failures onto the app error
// taxonomy so callers can branch without inspecting driver internals.
// Check and foreign-key violations keep the constraint name, which is how
// the importer reports which bound a source row broke.
func translateError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w (constraint %s)", op, apperrors.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: foreign key violation on %s: %w", op, pgErr.ConstraintName, err)
		case pgCheckViolation:
			return fmt.Errorf("%s: check constraint %s rejected the row: %w", op, pgErr.ConstraintName, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsConstraintViolation reports whether err is a row-level constraint
// failure (unique, foreign key, or check) rather than an operational
// error such as a lost connection.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return errors.Is(err, apperrors.ErrConflict)
	}
	switch pgErr.Code {
	case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
		return true
	}
	return false
}
