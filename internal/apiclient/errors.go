package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCanceled is returned when the caller's context was canceled or the call
// was superseded. It is never shown to a user.
var ErrCanceled = errors.New("request canceled")

// HTTPError is a non-2xx response. The body is not parsed.
type HTTPError struct {
	Status int
	Method string
	Path   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// NetworkError is a transport failure, timeout or undecodable body.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsCanceled reports whether err is ErrCanceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Message is the user-facing text of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
