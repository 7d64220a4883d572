package datasource

import (
	"errors"
	"fmt"
)

// ErrNoSource is returned by a router with no source able to serve a query.
var ErrNoSource = errors.New("datasource: no source configured for category")

// ConnectionError indicates the backing store is unreachable. It is fatal
// for the current request and is not retried inside this layer; the caller
// owns retry policy.
type ConnectionError struct {
	SourceID string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("datasource: source %s unreachable: %v", e.SourceID, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError indicates a malformed query or a query timeout. It carries
// enough context for the orchestrator boundary to log meaningfully.
type QueryError struct {
	SourceID string
	Table    string
	Timeout  bool
	Err      error
}

func (e *QueryError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("datasource: query on %s.%s timed out: %v", e.SourceID, e.Table, e.Err)
	}
	return fmt.Sprintf("datasource: query on %s.%s failed: %v", e.SourceID, e.Table, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsConnection reports whether err is a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsQuery reports whether err is a QueryError.
func IsQuery(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// IsTimeout reports whether err is a QueryError caused by a deadline.
func IsTimeout(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Timeout
}
