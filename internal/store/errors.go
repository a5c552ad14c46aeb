package store

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a unique or primary key
// violation raised by either metadata driver.
func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}

// conflictOr maps a unique violation to a MetadataConflictError and wraps
// anything else with msg.
func conflictOr(err error, kind, name, msg string) error {
	if isUniqueViolation(err) {
		return &core.MetadataConflictError{Kind: kind, Name: name, Reason: "unique index violation", Err: err}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
