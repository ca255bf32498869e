// Package repository defines the SQL data access layer and the sentinel
// errors it reports. Handlers never see driver errors directly; services
// translate these sentinels into the response taxonomy.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist, or exists
// but is not visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same email is already
// registered.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a write collides with a uniqueness
// constraint other than the user email.
var ErrConflict = errors.New("conflict")

const (
	mysqlDuplicateEntry   = 1062
	mysqlNoReferencedRow  = 1452
	mysqlNoReferencedRow2 = 1216
)

// isUniqueViolation recognises duplicate-key errors from MySQL and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation recognises inserts that reference a missing parent.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoReferencedRow || me.Number == mysqlNoReferencedRow2
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
