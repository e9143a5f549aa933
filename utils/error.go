package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

// Connection failure causes. Each maps to a distinct user-facing message in
// the caller; keep them stable.
const (
	ConnCauseAccessDenied    = "access_denied"
	ConnCauseUnknownDatabase = "unknown_database"
	ConnCauseTimeout         = "timeout"
	ConnCauseUnreachable     = "unreachable"
)

// ValidationError is raised before any connection is opened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConnectionError aborts the whole request. Cause is one of the ConnCause*
// constants so the caller can render a specific message ("access denied" vs
// "database does not exist" vs "connection timed out").
type ConnectionError struct {
	Cause string
	Host  string
	Db    string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tenant connection failed (%s) host=%s db=%s: %v", e.Cause, e.Host, e.Db, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NewConnectionError classifies a driver error into a ConnectionError.
func NewConnectionError(host string, db string, err error) *ConnectionError {
	return &ConnectionError{Cause: classifyConnCause(err), Host: host, Db: db, Err: err}
}

func classifyConnCause(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1044, 1045:
			return ConnCauseAccessDenied
		case 1049:
			return ConnCauseUnknownDatabase
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return ConnCauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ConnCauseTimeout
	}
	return ConnCauseUnreachable
}

// QueryError marks one failed read. Optional queries degrade to an empty
// result at the call site; required ones abort the report.
type QueryError struct {
	Query    string
	Optional bool
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func NewQueryError(query string, err error) *QueryError {
	return &QueryError{Query: query, Err: err}
}

func NewOptionalQueryError(query string, err error) *QueryError {
	return &QueryError{Query: query, Optional: true, Err: err}
}
