package apperrors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrUnsupportedDatasource = errors.New("unsupported datasource type")
	ErrPoolClosed            = errors.New("connection pool is closed")
)

// ConnectionError reports that no connection could be obtained, either
// because the pool failed to initialize or the connect attempt failed.
type ConnectionError struct {
	Target string // sanitized connection target
	Cause  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s): %v", e.Target, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// IsRetryable marks connection failures as transient for caller-side retry.
func (e *ConnectionError) IsRetryable() bool {
	return true
}

// TimeoutError reports that the per-call timeout expired while a statement
// was executing.
type TimeoutError struct {
	Query   string // sanitized statement shape
	Timeout time.Duration
	Cause   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("statement exceeded call timeout of %s: %s: %v", e.Timeout, e.Query, e.Cause)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

func (e *TimeoutError) IsRetryable() bool {
	return false
}

// ExecutionError reports that the database rejected or failed a statement.
type ExecutionError struct {
	Query string // sanitized statement shape
	Code  string // ORA-nnnnn when the driver reported one
	Cause error
}

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("execution error %s: %s: %v", e.Code, e.Query, e.Cause)
	}
	return fmt.Sprintf("execution error: %s: %v", e.Query, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func (e *ExecutionError) IsRetryable() bool {
	return false
}

// UserError is a problem in the caller's model definition that must be fixed
// by the user rather than retried.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) IsUserError() bool {
	return true
}

// SchemaViolationError reports a derived identifier longer than the dialect allows.
type SchemaViolationError struct {
	Identifier string
	Length     int
	Limit      int
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf(
		"identifier %q is %d bytes long but the database allows at most %d; "+
			"configure a shorter alias (sqlAlias) for the cube and its pre-aggregation",
		e.Identifier, e.Length, e.Limit,
	)
}

func (e *SchemaViolationError) IsUserError() bool {
	return true
}

// ReleaseWarning reports that returning a connection to the pool failed.
// It is logged and observed, never returned in place of an execution result.
type ReleaseWarning struct {
	Cause error
}

func (e *ReleaseWarning) Error() string {
	return fmt.Sprintf("connection release failed: %v", e.Cause)
}

func (e *ReleaseWarning) Unwrap() error {
	return e.Cause
}

// IsUserError reports whether err (or anything it wraps) is a user-facing error.
func IsUserError(err error) bool {
	var u interface{ IsUserError() bool }
	if errors.As(err, &u) {
		return u.IsUserError()
	}
	return false
}
