package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("pipeline.stage", map[string]any{"stage": "FETCHED", "ok": true})
	Warn("fetch.failed", map[string]any{"err": errors.New("boom")})

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["stage"] != "FETCHED" || ctx["ok"] != true {
		t.Fatalf("unexpected fields: %+v", ctx)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %v", entries[1].Level)
	}
	if got := entries[1].ContextMap()["err"]; got != "boom" {
		t.Fatalf("expected error rendered as string, got %v", got)
	}
}

func TestSetLoggerRestore(t *testing.T) {
	before := Logger()
	restore := SetLogger(nil)
	if Logger() == before {
		t.Fatalf("expected logger to be swapped")
	}
	restore()
	if Logger() != before {
		t.Fatalf("expected logger to be restored")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"  short  ", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
