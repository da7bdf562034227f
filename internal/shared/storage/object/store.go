package object

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when the bucket or key does not exist.
var ErrNotFound = errors.New("object not found")

// Object is an open stored object.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store downloads objects from private storage using service credentials.
type Store interface {
	Open(ctx context.Context, bucket, key string) (Object, error)
}

type unavailable struct {
	cause error
}

// Unavailable returns a Store whose every call fails with cause. It stands in
// for a backend that could not be configured at startup.
func Unavailable(cause error) Store {
	if cause == nil {
		cause = errors.New("object store not configured")
	}
	return unavailable{cause: cause}
}

func (u unavailable) Open(ctx context.Context, bucket, key string) (Object, error) {
	return Object{}, fmt.Errorf("object store unavailable: %w", u.cause)
}
