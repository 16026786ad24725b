// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key finds no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique key, such as a
// second booking row for the same user and event.  Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when an e-mail address is already registered.
var ErrEmailExists = errors.New("email already exists")

// MySQL server error numbers handled here.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// retryableError marks a failure after which the whole transaction can be
// run again: a lock wait timeout, a deadlock victim or a dropped connection.
type retryableError struct{ err error }

func (e *retryableError) Error() string   { return e.err.Error() }
func (e *retryableError) Unwrap() error   { return e.err }
func (e *retryableError) Temporary() bool { return true }

// classify tags MySQL failures that callers may retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == errLockWaitTimeout || me.Number == errDeadlock) {
		return &retryableError{err: err}
	}
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return &retryableError{err: err}
	}
	return err
}

// isDuplicate reports whether err is a unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}
