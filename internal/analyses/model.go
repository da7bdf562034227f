package analyses

import (
	"time"

	"resume-ingest/internal/inference"
)

const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
)

// Record is a persisted pipeline run. Profile is nil until the run completes.
type Record struct {
	ID          string             `json:"id"`
	RequestID   string             `json:"requestId"`
	Status      string             `json:"status"`
	OK          bool               `json:"ok"`
	Error       string             `json:"error,omitempty"`
	FileName    string             `json:"fileName"`
	Source      string             `json:"source"`
	Profile     *inference.Profile `json:"profile,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}

// Envelope is the response shape of a completed run: the ok flag, an optional
// error and every profile field at the top level.
type Envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	inference.Profile
}

// Envelope returns the response body of a completed record.
func (r Record) Envelope() (Envelope, bool) {
	if r.Status != StatusCompleted || r.Profile == nil {
		return Envelope{}, false
	}
	return Envelope{OK: r.OK, Error: r.Error, Profile: *r.Profile}, true
}
