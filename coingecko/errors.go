package coingecko

import (
	"fmt"
	"net/http"
)

var (
	// ErrNoCandidates is returned when a category lists no coins
	ErrNoCandidates = fmt.Errorf("coingecko: no candidate coins")

	// ErrRequest marks transport failures, including exhausted retries
	ErrRequest = fmt.Errorf("coingecko: request failed")

	// ErrDecodeResponse marks responses that are not the expected JSON
	ErrDecodeResponse = fmt.Errorf("coingecko: decode response")

	// ErrUnexpectedStatus marks non-2xx responses
	ErrUnexpectedStatus = fmt.Errorf("coingecko: unexpected status")
)

// StatusError carries the status code of a non-2xx response
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %d %s", ErrUnexpectedStatus, e.Path, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Temporary reports whether a later attempt may succeed
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// ErrStatus returns an error for a non-2xx response
func ErrStatus(path string, code int) error {
	return &StatusError{Path: path, Code: code}
}

// ErrDecode wraps a JSON decoding failure
func ErrDecode(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDecodeResponse, path, err)
}

// ErrTransport wraps a failed HTTP round trip
func ErrTransport(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRequest, path, err)
}

// ErrInvalidConfig returns an error for an invalid configuration field
func ErrInvalidConfig(msg string) error {
	return fmt.Errorf("coingecko: invalid config: %s", msg)
}
