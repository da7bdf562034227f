package analyses

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Repo defines persistence operations for analysis records.
type Repo interface {
	// Create stores a new queued record.
	Create(ctx context.Context, rec Record) error
	// Save stores a completed record, replacing a queued one with the same ID.
	Save(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	// List returns records newest first.
	List(ctx context.Context, limit, offset int) ([]Record, error)
}

// NewID returns a fresh record ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape of a record ID.
func ValidID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}
