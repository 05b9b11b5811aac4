package resilientgraphql

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse wraps a 200 response whose body is not a JSON object.
	ErrInvalidResponse = errors.New("invalid graphql response")

	// ErrStopPagination may be returned by a page callback to end pagination
	// without an error.
	ErrStopPagination = errors.New("stop pagination")

	// ErrCursorNotAdvancing is returned when the server hands back the cursor
	// that was just requested.
	ErrCursorNotAdvancing = errors.New("pagination cursor did not advance")
)

// ArgumentError reports caller misuse. It is raised before any I/O and never retried.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return "argument error: " + e.Msg }

func argumentErrorf(format string, args ...any) *ArgumentError {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// ConnectionError is a transport failure that was not retryable or exhausted
// the attempt budget. Err is the last observed cause.
type ConnectionError struct {
	Category TransportCategory
	Err      error
	Attempts int
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error (%s) after %d attempt(s): %v", e.Category, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// HTTPError is a non-200 response that was not retryable or exhausted the
// attempt budget.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d after %d attempt(s): %s", e.StatusCode, e.Attempts, truncate(e.Body, 512))
}

// GraphQLError carries the errors list of a 200 response.
type GraphQLError struct {
	Message  string
	Code     string
	Response map[string]any
	Attempts int
}

func (e *GraphQLError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graphql error [%s]: %s", e.Code, e.Message)
	}
	return "graphql error: " + e.Message
}

// RateLimitError is raised when the server throttles and either no attempts
// remain or the wait cannot be computed from the reported telemetry.
type RateLimitError struct {
	Reason    string
	Telemetry *ThrottleTelemetry
	Response  map[string]any
	Attempts  int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d attempt(s): %s", e.Attempts, e.Reason)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// setAttempts stamps the number of sends performed on a terminal error.
func setAttempts(err error, attempts int) error {
	var (
		connErr *ConnectionError
		httpErr *HTTPError
		gqlErr  *GraphQLError
		rlErr   *RateLimitError
	)
	switch {
	case errors.As(err, &connErr):
		connErr.Attempts = attempts
	case errors.As(err, &httpErr):
		httpErr.Attempts = attempts
	case errors.As(err, &gqlErr):
		gqlErr.Attempts = attempts
	case errors.As(err, &rlErr):
		rlErr.Attempts = attempts
	}
	return err
}
