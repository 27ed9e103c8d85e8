package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrIndexExists      = errors.New("db: index already exists")
	ErrDocumentNotFound = errors.New("db: document not found")
)

// Op constants name the engine API call for error context.
const (
	OpPing           = "ping"
	OpIndicesExists  = "indices.exists"
	OpIndicesCreate  = "indices.create"
	OpIndicesDelete  = "indices.delete"
	OpIndicesGet     = "indices.get"
	OpIndicesRefresh = "indices.refresh"
	OpIndex          = "index"
	OpUpdate         = "update"
	OpDelete         = "delete"
	OpSearch         = "search"
	OpGet            = "GET"
	OpSet            = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
