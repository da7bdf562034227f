package fetch

import "fmt"

// Kind classifies fetch failures.
type Kind string

const (
	KindStorageUnavailable Kind = "storage_unavailable"
	KindNotFound           Kind = "not_found"
	KindHTTP               Kind = "http_error"
	KindTooLarge           Kind = "too_large"
)

// Error describes why a document could not be fetched. StatusCode is set for
// KindHTTP when the server answered; it is 0 for transport failures.
type Error struct {
	Kind       Kind
	StatusCode int
	Source     string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindHTTP && e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: http status %d", e.Source, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.Source, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
