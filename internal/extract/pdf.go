package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, pageText(r, i))
	}
	return strings.Join(pages, "\n"), nil
}

// pageText returns the text runs of one page, top row first, joined by single
// spaces. A page without a usable text layer yields "".
func pageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()

	p := r.Page(num)
	if p.V.IsNull() {
		return ""
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		return ""
	}
	var runs []string
	for _, row := range rows {
		for _, run := range row.Content {
			if s := strings.TrimSpace(run.S); s != "" {
				runs = append(runs, s)
			}
		}
	}
	return strings.Join(runs, " ")
}
