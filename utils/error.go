package utils

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Every failure the core reports is one of these, or a persistence error
// passed through unchanged.
var (
	// absent, or owned by someone else
	ErrorRecordNotFound = errors.New("record not found")
	// the request would break an invariant (changed account id, bad amount, unknown type)
	ErrorInvalidOperation = errors.New("invalid operation")
	// the account changed under us twice in a row; safe to retry
	ErrorConcurrencyConflict = errors.New("concurrency conflict")

	ErrorDuplicateEmail     = errors.New("email is already registered")
	ErrorInvalidCredentials = errors.New("invalid email or password")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorUserDisabled       = errors.New("user is disabled")
)

const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

func IsDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}
	return false
}

// IsRetryableDBErr reports deadlocks and lock wait timeouts; the statement lost a
// race and can be replayed from a fresh read.
func IsRetryableDBErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDeadlock || mysqlErr.Number == mysqlErrLockWaitTimeout
	}
	return false
}
