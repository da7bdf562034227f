package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"resume-ingest/internal/shared/storage/object"
)

type fakeStore struct {
	objects map[string][]byte
	err     error
	calls   []string
}

func (s *fakeStore) Open(ctx context.Context, bucket, key string) (object.Object, error) {
	s.calls = append(s.calls, bucket+"/"+key)
	if s.err != nil {
		return object.Object{}, s.err
	}
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return object.Object{}, fmt.Errorf("open: %w", object.ErrNotFound)
	}
	return object.Object{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: "application/pdf",
		Size:        int64(len(data)),
	}, nil
}

func TestFetchStorageRef(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{"resumes/u1/cv.pdf": []byte("%PDF-1.4")}}
	f := New(Options{Store: store})

	doc, err := f.Fetch(context.Background(), StorageRef{Bucket: "resumes", Path: "u1/cv.pdf"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(doc.Data) != "%PDF-1.4" || doc.ContentType != "application/pdf" {
		t.Fatalf("unexpected document: %q %q", doc.Data, doc.ContentType)
	}
}

func TestFetchStorageErrors(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
		want  Kind
	}{
		{name: "missing object", store: &fakeStore{}, want: KindNotFound},
		{name: "backend down", store: &fakeStore{err: errors.New("connection refused")}, want: KindStorageUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(Options{Store: tt.store})
			_, err := f.Fetch(context.Background(), StorageRef{Bucket: "resumes", Path: "cv.pdf"})
			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if fe.Kind != tt.want {
				t.Fatalf("expected kind %s, got %s", tt.want, fe.Kind)
			}
		})
	}
}

func TestFetchNilStoreIsUnavailable(t *testing.T) {
	_, err := New(Options{}).Fetch(context.Background(), StorageRef{Bucket: "resumes", Path: "cv.pdf"})
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind != KindStorageUnavailable {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}

func TestFetchPublicURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain resume"))
	}))
	defer srv.Close()

	f := New(Options{Store: &fakeStore{}, HTTPClient: srv.Client()})
	doc, err := f.Fetch(context.Background(), RemoteURL{URL: srv.URL + "/cv.txt"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(doc.Data) != "plain resume" || doc.ContentType != "text/plain" {
		t.Fatalf("unexpected document: %q %q", doc.Data, doc.ContentType)
	}
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	}))
	defer srv.Close()

	f := New(Options{HTTPClient: srv.Client()})
	_, err := f.Fetch(context.Background(), RemoteURL{URL: srv.URL + "/cv.pdf"})
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if fe.Kind != KindHTTP || fe.StatusCode != http.StatusForbidden {
		t.Fatalf("expected http 403, got %s %d", fe.Kind, fe.StatusCode)
	}
}

func TestFetchPrivateURLUsesStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("private storage URL must not be fetched anonymously: %s", r.URL)
	}))
	defer srv.Close()

	store := &fakeStore{objects: map[string][]byte{"resumes/u1/cv.pdf": []byte("bytes")}}
	f := New(Options{Store: store, HTTPClient: srv.Client(), StorageEndpoint: srv.URL})

	doc, err := f.Fetch(context.Background(), RemoteURL{URL: srv.URL + "/storage/v1/object/public/resumes/u1/cv.pdf"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(doc.Data) != "bytes" {
		t.Fatalf("unexpected data %q", doc.Data)
	}
	if len(store.calls) != 1 || store.calls[0] != "resumes/u1/cv.pdf" {
		t.Fatalf("expected one storage download, got %v", store.calls)
	}
}

func TestFetchTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	defer srv.Close()

	f := New(Options{HTTPClient: srv.Client(), MaxBytes: 16})
	_, err := f.Fetch(context.Background(), RemoteURL{URL: srv.URL})
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind != KindTooLarge {
		t.Fatalf("expected too large, got %v", err)
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(Options{}).Fetch(context.Background(), RemoteURL{URL: url})
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind != KindHTTP || fe.StatusCode != 0 {
		t.Fatalf("expected transport http error, got %v", err)
	}
}
