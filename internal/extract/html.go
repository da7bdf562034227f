package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const htmlBlocks = "p, li, h1, h2, h3, h4, h5, h6, td, th, dt, dd, pre, blockquote"

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template, iframe").Remove()

	var blocks []string
	doc.Find(htmlBlocks).Each(func(_ int, s *goquery.Selection) {
		// Outer blocks repeat the text of the blocks they contain.
		if s.Find(htmlBlocks).Length() > 0 {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) > 0 {
		return strings.Join(blocks, "\n"), nil
	}

	if body := strings.TrimSpace(doc.Find("body").Text()); body != "" {
		return body, nil
	}
	return strings.TrimSpace(doc.Text()), nil
}
