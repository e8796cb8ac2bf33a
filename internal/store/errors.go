package store

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when an activity or daily entry does not exist.
	ErrNotFound = eris.New("not found")
	// ErrDuplicateName is returned when an activity name is already taken.
	ErrDuplicateName = eris.New("activity name already exists")
	// ErrInvalidInput is returned for out-of-range field values.
	ErrInvalidInput = eris.New("invalid input")
	// ErrNoDatabaseFile is returned by Backup on an in-memory store.
	ErrNoDatabaseFile = eris.New("store has no database file")
)

func constraintCode(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	if code, ok := constraintCode(err); ok && code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if code, ok := constraintCode(err); ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
