package util

import (
	"path"
	"strings"
)

const maxErrorLen = 500

// SanitizeError flattens err to a single line of at most 500 bytes for
// responses and records.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxErrorLen {
		msg = strings.ToValidUTF8(msg[:maxErrorLen], "")
	}
	return msg
}

// DisplayName returns the base name of a declared file name or storage path,
// with separators and control characters removed.
func DisplayName(name string) string {
	s := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if s == "" {
		return ""
	}
	s = path.Base(s)
	if s == "." || s == "/" || s == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
