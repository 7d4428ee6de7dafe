// Package repository holds the payment attempt ledger.  The sentinel
// errors below let the payment flow tell a missing row apart from a
// database failure.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrAttemptNotFound is returned when an idempotency key has no ledger row.
var ErrAttemptNotFound = errors.New("payment attempt not found")

// ErrConflict is returned when an insert collides with an existing key.
var ErrConflict = errors.New("conflict")

// isDuplicate reports a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
