package analyses

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrMissingID = errors.New("record id is required")
)
