package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoToken is returned before any request is issued when the context
// carries no bearer token. Feature modules treat it as "skip silently".
var ErrNoToken = errors.New("backend: no bearer token")

// TransportError wraps network-level failures: the request never produced
// an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Message is taken from the response body
// when it carries one.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("backend: %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// DecodeError reports a 2xx body that could not be decoded or did not match
// the expected schema.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("backend: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// MessageOf returns the backend supplied message carried by err, if any.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
