package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var errNoDocumentXML = errors.New("word/document.xml not found")

// skippedElements hold embedded content whose text is not part of the body.
var skippedElements = map[string]bool{
	"drawing": true,
	"object":  true,
	"pict":    true,
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errNoDocumentXML
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return docxBodyText(rc)
}

// docxBodyText walks document.xml and keeps only w:t runs. w:tab becomes a
// space, w:br and w:cr a newline, and every paragraph ends with a newline.
func docxBodyText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	skipDepth := 0
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipDepth > 0 || skippedElements[t.Name.Local] {
				skipDepth++
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteByte(' ')
			case "br", "cr":
				buf.WriteByte('\n')
			}
		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteByte('\n')
			}
		case xml.CharData:
			if inText && skipDepth == 0 {
				buf.Write(t)
			}
		}
	}
	return buf.String(), nil
}
