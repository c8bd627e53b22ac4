package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	ConstraintUsersEmail    = "users_email_key"
	ConstraintUsersUsername = "users_username_key"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")

	// ErrInvalidValue is a write rejected by a CHECK constraint or a column
	// range, such as an amount that rounds to zero cents.
	ErrInvalidValue = errors.New("value rejected by column constraint")
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeNumericOutOfRange    = "22003"
	codeInvalidTextRepresent = "22P02"
)

// DuplicateError names the unique constraint a write violated.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return "duplicate key: " + e.Constraint
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

func IsNoRows(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicate reports whether err violated the given unique constraint.
func IsDuplicate(err error, constraint string) bool {
	var dup *DuplicateError
	return errors.As(err, &dup) && dup.Constraint == constraint
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return &DuplicateError{Constraint: pgErr.ConstraintName}
		case codeCheckViolation, codeNumericOutOfRange, codeInvalidTextRepresent:
			return fmt.Errorf("%w: %s", ErrInvalidValue, pgErr.Message)
		}
	}
	return err
}
