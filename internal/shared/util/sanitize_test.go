package util

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeError(t *testing.T) {
	if got := SanitizeError(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := SanitizeError(errors.New(" fetch failed\nline two\r ")); got != "fetch failed line two" {
		t.Fatalf("unexpected %q", got)
	}
	long := errors.New(strings.Repeat("x", 900))
	if got := SanitizeError(long); len(got) != 500 {
		t.Fatalf("expected 500 bytes, got %d", len(got))
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"resume.pdf":               "resume.pdf",
		"  u1/docs/resume.pdf  ":   "resume.pdf",
		`C:\Users\me\cv.docx`:      "cv.docx",
		"https://x.io/a/cv%20.pdf": "cv%20.pdf",
		"":                         "",
		"..":                       "",
		"bad\x00name.pdf":          "badname.pdf",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
