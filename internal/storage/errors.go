package storage

import (
	"errors"
	"strings"

	"expense-ledger/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type constraint int

const (
	noConstraint constraint = iota
	uniqueViolation
	checkViolation
	foreignKeyViolation
	valueTooLong
)

// violation reports which integrity constraint, if any, err represents.
func violation(err error) constraint {
	if err == nil {
		return noConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return uniqueViolation
		case "23514":
			return checkViolation
		case "23503":
			return foreignKeyViolation
		case "22001":
			return valueTooLong
		}
		return noConstraint
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return uniqueViolation
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return checkViolation
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return foreignKeyViolation
		}
	}

	// Extended result codes are not always reported; fall back to the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return uniqueViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return checkViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyViolation
	}
	return noConstraint
}

// classify turns constraint violations into domain errors using the given
// messages; other errors pass through unchanged.
func classify(err error, messages map[constraint]string) error {
	c := violation(err)
	msg, ok := messages[c]
	if !ok {
		return err
	}
	switch c {
	case uniqueViolation:
		return apperr.Wrap(apperr.KindConflict, msg, err)
	case checkViolation, valueTooLong:
		return apperr.Wrap(apperr.KindValidation, msg, err)
	case foreignKeyViolation:
		return apperr.Wrap(apperr.KindNotFound, msg, err)
	}
	return err
}
