package extract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\r]+`)
	newlineSpaceRe    = regexp.MustCompile(` ?\n ?`)
	blankLinesRe      = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans extracted text: control and zero-width characters are
// dropped, space variants become a plain space, bullet glyphs become "-",
// horizontal whitespace runs collapse to one space, spaces next to newlines
// are removed and runs of three or more newlines become two.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(r)
		case r == '\f' || r == '\v' || isSpaceVariant(r):
			b.WriteByte(' ')
		case isBullet(r):
			b.WriteByte('-')
		case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
		default:
			b.WriteRune(r)
		}
	}

	out := horizontalSpaceRe.ReplaceAllString(b.String(), " ")
	out = newlineSpaceRe.ReplaceAllString(out, "\n")
	out = blankLinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func isSpaceVariant(r rune) bool {
	switch r {
	case '\u00A0', '\u1680', '\u202F', '\u205F', '\u3000':
		return true
	}
	return r >= '\u2000' && r <= '\u200A'
}

func isBullet(r rune) bool {
	switch r {
	case '\u2022', '\u25E6', '\u25AA', '\u25AB', '\u25CF', '\u25CB', '\u25A0', '\u25A1',
		'\u25BA', '\u25B6', '\u25B8', '\u27A2', '\u27A4', '\u2713', '\u2714', '\u2023',
		'\u2043', '\u2219', '\u29BF', '\u29BE',
		// Symbol/Wingdings bullets as they come out of Word-generated PDFs.
		'\uF0A7', '\uF0B7', '\uF076', '\uF0D8', '\uF0FC':
		return true
	}
	return false
}
