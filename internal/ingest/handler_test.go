package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/analyses"
	"resume-ingest/internal/fetch"
	"resume-ingest/internal/inference"
	"resume-ingest/internal/shared/storage/object"
)

var envelopeKeys = []string{"ok", "skills", "experience_years", "job_role", "ats_score", "summary", "recommendations", "missing_skills", "strength_areas"}

type emptyStore struct{}

func (emptyStore) Open(ctx context.Context, bucket, key string) (object.Object, error) {
	return object.Object{}, fmt.Errorf("open %s/%s: %w", bucket, key, object.ErrNotFound)
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	h.RegisterLegacyRoutes(r)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	for _, key := range envelopeKeys {
		if _, ok := payload[key]; !ok {
			t.Fatalf("response missing %q: %v", key, payload)
		}
	}
	if _, ok := payload["summary"].([]any); !ok {
		t.Fatalf("summary must be an array: %v", payload["summary"])
	}
	return payload
}

func TestAnalyzeStorageNotFoundStill200(t *testing.T) {
	p := New(Options{
		Fetcher:  fetch.New(fetch.Options{Store: emptyStore{}}),
		Inferrer: inference.NewClient(inference.NotConfigured("openai")),
	})
	r := newTestRouter(NewHandler(p, nil))

	resp := postJSON(r, "/api/v1/resumes/analyze", `{"storagePath":"u1/cv.pdf","fileName":"cv.pdf"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	payload := decodeEnvelope(t, resp)
	if payload["ok"] != false {
		t.Fatalf("expected ok=false, got %v", payload["ok"])
	}
	if msg, _ := payload["error"].(string); !strings.Contains(msg, "not_found") {
		t.Fatalf("expected not_found in error, got %q", msg)
	}
	if payload["job_role"] != inference.DefaultJobRole {
		t.Fatalf("expected fallback job role, got %v", payload["job_role"])
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	p := New(Options{
		Fetcher:  &fakeFetcher{doc: fetch.Document{Data: []byte(longText()), ContentType: "text/plain"}},
		Inferrer: &fakeInferrer{profile: inferred()},
	})
	r := newTestRouter(NewHandler(p, nil))

	for _, path := range []string{"/api/v1/resumes/analyze", "/analyze-resume"} {
		resp := postJSON(r, path, `{"fileUrl":"https://x.io/cv.txt"}`)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
		payload := decodeEnvelope(t, resp)
		if payload["ok"] != true || payload["job_role"] != "Backend Engineer" {
			t.Fatalf("%s: unexpected payload %v", path, payload)
		}
		if _, ok := payload["error"]; ok {
			t.Fatalf("%s: error must be omitted on success", path)
		}
	}
}

func TestAnalyzeRejectsMissingSource(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := newTestRouter(NewHandler(New(Options{Fetcher: fetcher, Inferrer: &fakeInferrer{}}), nil))

	tests := []struct {
		name string
		body string
	}{
		{name: "no source", body: `{"fileName":"cv.pdf"}`},
		{name: "empty body", body: ``},
		{name: "invalid json", body: `{"storagePath":`},
		{name: "wrong type", body: `{"storagePath":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(r, "/api/v1/resumes/analyze", tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
			payload := decodeEnvelope(t, resp)
			if payload["ok"] != false || payload["error"] == "" {
				t.Fatalf("expected ok=false with error, got %v", payload)
			}
		})
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("nothing should be fetched")
	}
}

func TestAnalyzeAsyncWithoutQueue(t *testing.T) {
	r := newTestRouter(NewHandler(New(Options{}), nil))
	resp := postJSON(r, "/api/v1/resumes/analyze/async", `{"storagePath":"cv.pdf"}`)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestAnalyzeAsyncQueues(t *testing.T) {
	repo := analyses.NewMemoryRepo()
	q := &capturingQueue{}
	p := New(Options{Fetcher: &fakeFetcher{}, Inferrer: &fakeInferrer{profile: inferred()}})
	r := newTestRouter(NewHandler(p, NewJobs(p, repo, q)))

	resp := postJSON(r, "/api/v1/resumes/analyze/async", `{"storagePath":"u1/cv.pdf"}`)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["status"] != analyses.StatusQueued || len(q.msgs) != 1 || q.msgs[0].AnalysisID != payload["analysisId"] {
		t.Fatalf("unexpected response %v sent %v", payload, q.msgs)
	}

	bad := postJSON(r, "/api/v1/resumes/analyze/async", `{}`)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing source, got %d", bad.Code)
	}
}
