package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume-ingest/internal/inference"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/storage/object/local"
)

func localConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:              "test",
		CORSAllowOrigins: "*",
		ObjectStoreType:  "local",
		LocalStoreDir:    t.TempDir(),
		DefaultBucket:    "resumes",
		LLMProvider:      "openai",
		RateLimitRPS:     50,
		RateLimitBurst:   50,
	}
}

func TestBuildWithoutBackends(t *testing.T) {
	cfg := localConfig(t)
	app, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil || app.Queue != nil || app.Jobs.Enabled() {
		t.Fatalf("expected no database or queue")
	}
	if _, ok := app.Store.(*local.Store); !ok {
		t.Fatalf("expected local store, got %T", app.Store)
	}

	dir := filepath.Join(cfg.LocalStoreDir, "resumes", "u1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	text := "Jane Doe\nSoftware Engineer at Acme, 2019 - 2023\nGo, Python, SQL, Docker"
	if err := os.WriteFile(filepath.Join(dir, "cv.txt"), []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/analyze", bytes.NewBufferString(`{"storagePath":"u1/cv.txt"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["ok"] != false {
		t.Fatalf("expected ok=false without an API key, got %v", payload)
	}
	if msg, _ := payload["error"].(string); !strings.Contains(msg, "not configured") || strings.Contains(msg, "not_found") {
		t.Fatalf("expected only the inference failure, got %q", msg)
	}
	id, _ := payload["analysis_id"].(string)
	if id == "" {
		t.Fatalf("expected the run to be recorded in development")
	}

	get := httptest.NewRecorder()
	app.Router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/analyses/"+id, nil))
	if get.Code != http.StatusOK {
		t.Fatalf("expected recorded analysis, got %d", get.Code)
	}

	upload := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/uploads", bytes.NewBufferString(`{"fileName":"cv.pdf","contentType":"application/pdf","sizeBytes":10}`))
	upload.Header.Set("Content-Type", "application/json")
	uploadResp := httptest.NewRecorder()
	app.Router.ServeHTTP(uploadResp, upload)
	if uploadResp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected uploads to be unavailable on the local store, got %d", uploadResp.Code)
	}
}

func TestBuildCompleterWithoutKey(t *testing.T) {
	for _, provider := range []string{"openai", "gemini"} {
		cfg := config.Config{LLMProvider: provider}
		completer := BuildCompleter(context.Background(), cfg)
		_, err := completer.Complete(context.Background(), "system", "user")
		if !errors.Is(err, inference.ErrNotConfigured) {
			t.Fatalf("%s: expected ErrNotConfigured, got %v", provider, err)
		}
	}
}
