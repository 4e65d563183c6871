package query

import (
	"errors"
	"fmt"
)

// ErrSQLSerialize is matched by every error raised while rendering a value.
var ErrSQLSerialize = errors.New("failed to serialize to SQL")

// ErrBucketClipping is returned when a timestamp cannot be aligned to a bucket
// boundary.
var ErrBucketClipping = errors.New("error clipping values to bucket sizes")

// SerializeError reports which clause failed to render.
type SerializeError struct {
	// Clause names the fragment being rendered, e.g. "filter value".
	Clause string
	Err    error
}

func (e *SerializeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: error serializing %s", ErrSQLSerialize, e.Clause)
	}
	return fmt.Sprintf("%s: error serializing %s: %v", ErrSQLSerialize, e.Clause, e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSQLSerialize) true for any SerializeError.
func (e *SerializeError) Is(target error) bool { return target == ErrSQLSerialize }

// InvalidQueryError is returned when a structural precondition of Build fails.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "failed to build sql query: " + e.Reason
}

// NotImplementedError marks a dialect and feature combination with no rendering.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return "not implemented: " + e.Feature
}

// ExecutionError wraps a failure from a RowLoader. It is kept apart from the
// building errors so callers can tell a malformed query from a failed one.
type ExecutionError struct {
	Query string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func serializeErr(clause string, err error) error {
	return &SerializeError{Clause: clause, Err: err}
}
