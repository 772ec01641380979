package datasource

import "fmt"

// Reason classifies a datasource failure. The orchestrator isolates
// failed sources and reports them per reason; nothing retries.
type Reason string

const (
	// ReasonNotFound means the configured resource does not exist
	// (unknown instance name, DB identifier and so on).
	ReasonNotFound Reason = "not_found"

	// ReasonNoDataPoints means the query succeeded but returned nothing
	// usable inside the window.
	ReasonNoDataPoints Reason = "no_data_points"

	// ReasonQueryTimeout means a long-running query did not complete
	// before its polling deadline.
	ReasonQueryTimeout Reason = "query_timeout"

	// ReasonQueryFailed covers every other fetch failure: API errors,
	// malformed results, cancelled contexts.
	ReasonQueryFailed Reason = "query_failed"
)

// Error is a classified datasource failure. Source carries the
// datasource label so batch reports read without extra context.
type Error struct {
	Source string
	Reason Reason
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a leaf datasource error.
func NewError(source string, reason Reason, format string, args ...interface{}) *Error {
	return &Error{Source: source, Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a classification to an underlying failure.
func WrapError(source string, reason Reason, err error, msg string) *Error {
	return &Error{Source: source, Reason: reason, Msg: msg, Err: err}
}
