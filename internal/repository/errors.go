// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to tell
// missing rows and constraint violations apart from infrastructure failures.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a signup collides with the unique email
// index.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned for any other unique key collision.
var ErrDuplicate = errors.New("duplicate key")

// ErrStaleStatus is returned by conditional mission updates when the row no
// longer carries the status the caller read.  Another writer got there
// first.
var ErrStaleStatus = errors.New("mission status changed concurrently")

const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique constraint violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows to ErrNotFound and passes everything else on.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
