package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound     = errors.New("db: key not found")
	ErrNotConnected    = errors.New("db: not connected")
	ErrInvalidDocument = errors.New("db: invalid document")
)

// Op constants name the failing command for error context.
const (
	OpPing       = "PING"
	OpDel        = "DEL"
	OpScan       = "SCAN"
	OpJSONGet    = "JSON.GET"
	OpJSONSet    = "JSON.SET"
	OpAggregate  = "aggregate"
	OpDeleteMany = "deleteMany"
	OpUpdateMany = "updateMany"
	OpSelect     = "SELECT"
	OpInsert     = "INSERT"
	OpDelete     = "DELETE"
	OpMigrate    = "migrate"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
