package ingest

import (
	"fmt"
	"net/url"
	"strings"

	"resume-ingest/internal/fetch"
	"resume-ingest/internal/shared/util"
)

// DefaultBucket is used when a request names a storage path without a bucket.
const DefaultBucket = "resumes"

// Request locates one resume. StoragePath wins over FileURL when both are set.
type Request struct {
	StoragePath string `json:"storagePath"`
	Bucket      string `json:"bucket"`
	FileURL     string `json:"fileUrl"`
	FileName    string `json:"fileName"`

	// AnalysisID names the record a run is saved under. Empty means a new ID.
	AnalysisID string `json:"-"`
}

// InputKind classifies request errors.
type InputKind string

const (
	KindMissingSource InputKind = "missing_source"
	KindInvalidBody   InputKind = "invalid_body"
)

// InputError is the only error Run returns: the request does not locate a
// document, so there is nothing to degrade to.
type InputError struct {
	Kind InputKind
	Err  error
}

func (e *InputError) Error() string {
	switch {
	case e.Kind == KindMissingSource:
		return "storagePath or fileUrl is required"
	case e.Err != nil:
		return fmt.Sprintf("invalid request body: %v", e.Err)
	default:
		return "invalid request body"
	}
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// source resolves the request to a fetch source and the name shown to
// inference. defaultBucket applies to storage paths without a bucket.
func (r Request) source(defaultBucket string) (fetch.Source, string, error) {
	if p := strings.TrimLeft(strings.TrimSpace(r.StoragePath), "/"); p != "" {
		bucket := strings.TrimSpace(r.Bucket)
		if bucket == "" {
			bucket = defaultBucket
		}
		if bucket == "" {
			bucket = DefaultBucket
		}
		return fetch.StorageRef{Bucket: bucket, Path: p}, r.displayName(p), nil
	}

	if raw := strings.TrimSpace(r.FileURL); raw != "" {
		u, err := url.Parse(raw)
		if err == nil && u.Host != "" {
			switch strings.ToLower(u.Scheme) {
			case "http", "https", "s3":
				return fetch.RemoteURL{URL: raw}, r.displayName(u.Path), nil
			}
		}
	}

	return nil, "", &InputError{Kind: KindMissingSource}
}

func (r Request) displayName(fallback string) string {
	if name := util.DisplayName(r.FileName); name != "" {
		return name
	}
	if name := util.DisplayName(fallback); name != "" {
		return name
	}
	return "resume"
}
