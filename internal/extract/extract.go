package extract

import (
	"errors"
	"fmt"
	"strings"

	"resume-ingest/internal/shared/telemetry"
)

// ErrLegacyDOC marks a binary Word 97-2003 document, which has no parser here.
var ErrLegacyDOC = errors.New("legacy binary doc format")

// Error reports a document that could not be parsed. Extract swallows it;
// ExtractBytes returns it.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extract returns normalized text for data. It never fails: unreadable
// documents produce "".
func Extract(data []byte, fileName, contentType string) string {
	text, err := ExtractBytes(data, fileName, contentType)
	if err != nil {
		fields := map[string]any{
			"file_name": fileName,
			"bytes":     len(data),
			"err":       err.Error(),
		}
		var ee *Error
		if errors.As(err, &ee) {
			fields["format"] = string(ee.Format)
		}
		telemetry.Warn("extract.failed", fields)
		return ""
	}
	return text
}

// ExtractBytes is Extract with parse failures reported as *Error.
func ExtractBytes(data []byte, fileName, contentType string) (text string, err error) {
	format := Detect(fileName, contentType, data)
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &Error{Format: format, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	if len(data) == 0 {
		return "", nil
	}

	var raw string
	switch format {
	case FormatPDF:
		raw, err = extractPDF(data)
	case FormatDOCX:
		raw, err = extractDOCX(data)
	case FormatDOC:
		// Renamed OOXML files are common; real binary .doc is not readable.
		raw, err = extractDOCX(data)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrLegacyDOC, err)
		}
	case FormatHTML:
		raw, err = extractHTML(data)
	default:
		raw = strings.ToValidUTF8(string(data), "\uFFFD")
	}
	if err != nil {
		return "", &Error{Format: format, Err: err}
	}
	return Normalize(raw), nil
}
