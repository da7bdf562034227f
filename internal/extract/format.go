package extract

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
)

// Format is a document format the extractor knows how to read.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatDOC     Format = "doc"
	FormatHTML    Format = "html"
	FormatText    Format = "text"
	FormatUnknown Format = "unknown"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDOC  = "application/msword"
)

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Detect picks a format from the file name suffix, then the content type, then
// the leading bytes of data.
func Detect(fileName, contentType string, data []byte) Format {
	if f := formatFromName(fileName); f != FormatUnknown {
		return f
	}
	if f := formatFromContentType(contentType); f != FormatUnknown {
		return f
	}
	return sniff(data)
}

func formatFromName(fileName string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".doc":
		return FormatDOC
	case ".html", ".htm":
		return FormatHTML
	case ".txt", ".md", ".text":
		return FormatText
	default:
		return FormatUnknown
	}
}

func formatFromContentType(contentType string) Format {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch {
	case clean == mimePDF:
		return FormatPDF
	case clean == mimeDOCX:
		return FormatDOCX
	case clean == mimeDOC:
		return FormatDOC
	case clean == "text/html" || clean == "application/xhtml+xml":
		return FormatHTML
	case strings.HasPrefix(clean, "text/"):
		return FormatText
	default:
		// application/zip, application/octet-stream and friends say nothing
		// about the document itself.
		return FormatUnknown
	}
}

func sniff(data []byte) Format {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	switch {
	case bytes.Contains(head, []byte("%PDF-")):
		return FormatPDF
	case bytes.HasPrefix(data, oleMagic):
		return FormatDOC
	case bytes.HasPrefix(data, []byte("PK\x03\x04")) && hasZipEntry(data, "word/document.xml"):
		return FormatDOCX
	}
	lower := bytes.ToLower(bytes.TrimSpace(head))
	if bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.Contains(lower, []byte("<html")) {
		return FormatHTML
	}
	return FormatUnknown
}

func hasZipEntry(data []byte, entry string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == entry {
			return true
		}
	}
	return false
}
