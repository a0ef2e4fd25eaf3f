// Package evidence scores PDF paragraph candidates against industry traits
// and selects the single best supporting passage per trait.
package evidence

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlRe = regexp.MustCompile(`https?://\S+|www\.\S+`)
	// Standalone page-number lines: "12", "- 12 -", "12 페이지", "Page 12".
	pageNumRe    = regexp.MustCompile(`(?m)^\s*[-–]?\s*\d{1,4}\s*[-–]?\s*(페이지|페이지\s*중|/\s*\d+)?\s*$`)
	pageWordRe   = regexp.MustCompile(`(?i)page\s+\d+(\s+of\s+\d+)?`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Clean strips URLs, page-number lines and boilerplate from a candidate
// paragraph and collapses whitespace. Filtering and length rules operate on
// this cleaned form.
func Clean(text string) string {
	s := urlRe.ReplaceAllString(text, " ")
	s = pageNumRe.ReplaceAllString(s, " ")
	s = pageWordRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// KoreanCount counts Hangul runes (syllable blocks and jamo).
func KoreanCount(s string) int {
	n := 0
	for _, r := range s {
		if isHangul(r) {
			n++
		}
	}
	return n
}

// KoreanRatio is the share of Hangul among non-space runes, 0.0-1.0.
func KoreanRatio(s string) float64 {
	total, hangul := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isHangul(r) {
			hangul++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hangul) / float64(total)
}

func isHangul(r rune) bool {
	return (r >= 0xAC00 && r <= 0xD7A3) || // syllable blocks
		(r >= 0x1100 && r <= 0x11FF) || // jamo
		(r >= 0x3130 && r <= 0x318F) // compatibility jamo
}

// sentenceFinalRunes are the endings that mark a complete Korean sentence
// (평서형/명사형 종결): a short fragment that still ends in one of these is
// prose, not a table cell.
var sentenceFinalRunes = map[rune]bool{
	'다': true, '요': true, '함': true, '임': true,
	'음': true, '됨': true, '죠': true,
}

// HasSentenceFinal reports whether the text ends with a sentence-final
// particle, ignoring trailing punctuation and closing quotes.
func HasSentenceFinal(s string) bool {
	runes := []rune(strings.TrimSpace(s))
	for i := len(runes) - 1; i >= 0; i-- {
		r := runes[i]
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			continue
		}
		return sentenceFinalRunes[r]
	}
	return false
}

// splitSentences breaks cleaned text on sentence terminators. Used by the
// regulation gate's same-sentence co-occurrence rule.
func splitSentences(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
