// Package repository implements the persistent stores of the account
// core over MySQL. Sentinel errors defined here let the service layer
// distinguish failure scenarios without inspecting driver errors. All
// cross-request coordination (lockout counters, session caps, pending
// single-flight, identity uniqueness) is enforced in SQL — conditional
// updates and unique keys — never with in-process locks, so concurrent
// requests against the same user cannot lose updates.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// key (duplicate email, username, phone, or rights pair).
var ErrDuplicate = errors.New("duplicate key")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062). Uniqueness of identity fields relies on unique keys
// rather than read-then-write existence checks, so this is how a
// registration race surfaces.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
