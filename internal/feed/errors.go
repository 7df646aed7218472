package feed

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes feed errors.
type ErrorCode string

const (
	// ErrCodeStatus indicates the server answered with a non-2xx status.
	ErrCodeStatus ErrorCode = "HTTP_STATUS"

	// ErrCodeTransport indicates the request never produced a response
	// (DNS, connection refused, timeout, cancelled context).
	ErrCodeTransport ErrorCode = "TRANSPORT"

	// ErrCodeInvalidJSON indicates the body is not valid JSON.
	ErrCodeInvalidJSON ErrorCode = "INVALID_JSON"

	// ErrCodeNotObject indicates the body is valid JSON but not an object.
	ErrCodeNotObject ErrorCode = "NOT_OBJECT"
)

// FetchError reports a failed GET: either a non-2xx response or a
// transport failure. StatusCode is 0 for transport failures.
type FetchError struct {
	Code ErrorCode

	// URL is the feed URL without the cache-busting parameter.
	URL string

	StatusCode int
	Status     string

	// Err is the underlying transport error, nil for status errors.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Code == ErrCodeStatus {
		return fmt.Sprintf("%s: GET %s: %s", e.Code, e.URL, e.Status)
	}
	return fmt.Sprintf("%s: GET %s: %v", e.Code, e.URL, e.Err)
}

// Unwrap returns the transport error.
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a response body that could not be decoded.
type ParseError struct {
	Code ErrorCode
	URL  string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: decode %s: %v", e.Code, e.URL, e.Err)
}

// Unwrap returns the decoding error.
func (e *ParseError) Unwrap() error { return e.Err }

// IsFetchError returns true if err is or wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// StatusCode extracts the HTTP status from a wrapped *FetchError, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// Kind names the error class for logs and the journal: "fetch", "parse",
// or "" for nil and unclassified errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsFetchError(err):
		return "fetch"
	case IsParseError(err):
		return "parse"
	default:
		return ""
	}
}
