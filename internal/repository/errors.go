package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("book is not available for borrowing")
	ErrBookNotBorrowed = errors.New("book is not borrowed")
)

// Kind classifies why the backing store rejected an operation.
type Kind string

const (
	KindConstraint  Kind = "constraint"
	KindInvalidData Kind = "invalid_data"
	KindUnavailable Kind = "unavailable"
	KindUnknown     Kind = "unknown"
)

// PersistenceError wraps a failure reported by the storage engine. It is never
// produced for the shape of book data under the default schema.
type PersistenceError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s book: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Cause() error { return e.Err }

// IsUnavailable reports whether err is a PersistenceError caused by the store
// being unreachable or overloaded.
func IsUnavailable(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr) && perr.Kind == KindUnavailable
}

// IsInvalidData reports whether the store refused a value it cannot
// represent, such as a NUL byte in a PostgreSQL text column.
func IsInvalidData(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr) && perr.Kind == KindInvalidData
}

func wrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{
		Op:   op,
		Kind: classify(err),
		Err:  errors.WithStack(err),
	}
}

func classify(err error) Kind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return KindConstraint
		case strings.HasPrefix(pgErr.Code, "22"):
			return KindInvalidData
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "53"),
			strings.HasPrefix(pgErr.Code, "57P"):
			return KindUnavailable
		}
		return KindUnknown
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) {
		return KindUnavailable
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return KindConstraint
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen:
			return KindUnavailable
		}
		return KindUnknown
	}

	if errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}

	// database/sql reports a closed pool as a plain error.
	if strings.Contains(err.Error(), "sql: database is closed") {
		return KindUnavailable
	}

	return KindUnknown
}
