package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors shared by all services. Handlers map them onto
// RFC7807 problem responses via platform/httpx.
var (
	// ErrUnauthorized indicates a missing or invalid actor.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the actor lacks a capability or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a malformed or out-of-range value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates a duplicate or constraint violation.
	ErrConflict = errors.New("conflict")
)

// Postgres SQLSTATE classes translated at the repository boundary.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MapStorageError remaps constraint violations onto the shared taxonomy so
// raw storage detail never leaks past the repository layer. Other errors
// pass through unchanged.
func MapStorageError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: duplicate entry", ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: referenced record missing", ErrInvalidInput)
		}
	}
	return err
}
