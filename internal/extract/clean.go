package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanText normalizes extracted text to NFKC form and strips control and
// private-use characters that PDF text layers commonly leak, preserving
// newlines, tabs, and page break markers.
func CleanText(text string) string {
	text = norm.NFKC.String(text)

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t' || r == '\f' || r == '\r':
			sb.WriteRune(r)
		case r < 0x20:
			// other control chars dropped
		case r >= 0xE000 && r <= 0xF8FF:
			// private use area glyphs from broken font encodings
		case r == unicode.ReplacementChar:
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
