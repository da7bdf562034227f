package inference

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies inference failures.
type Kind string

const (
	KindMalformedResponse Kind = "malformed_response"
	KindHTTP              Kind = "http_error"
	KindTimeout           Kind = "timeout"
	KindNotConfigured     Kind = "not_configured"
)

// ErrNotConfigured is returned by a Completer that has no credentials.
var ErrNotConfigured = errors.New("inference service not configured")

// Error reports why Infer fell back to the fixed profile.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTP && e.StatusCode != 0 {
		return fmt.Sprintf("inference %s: status %d: %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inference %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError is returned by completers when the service answered with a
// non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

func classify(err error) *Error {
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}
	var se *StatusError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return &Error{Kind: KindNotConfigured, Err: err}
	case errors.As(err, &se):
		return &Error{Kind: KindHTTP, StatusCode: se.StatusCode, Err: err}
	case isTimeout(err):
		return &Error{Kind: KindTimeout, Err: err}
	default:
		return &Error{Kind: KindHTTP, Err: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
