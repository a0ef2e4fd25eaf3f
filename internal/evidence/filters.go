package evidence

import (
	"strings"
	"unicode"

	"github.com/dartlens/dartlens/internal/model"
)

// Junk-filter thresholds, measured on cleaned text.
const (
	minCleanedLen  = 80  // below this a candidate is a fragment
	minSentenceLen = 160 // raw length that rescues a complete sentence
	minKoreanRunes = 20  // fewer Hangul runes than this is not prose
	tableMinLines  = 3   // column heuristics need at least this many lines
	digitSymbolMax = 0.30
	lowKoreanRatio = 0.30
)

// isJunk rejects fragments, boilerplate and non-Korean noise. raw is the
// original candidate text (line structure intact), cleaned the Clean()ed
// form.
func isJunk(raw, cleaned string) bool {
	if len([]rune(cleaned)) < minCleanedLen {
		// A short extract survives only as a complete sentence from a
		// passage long enough to not be a stray cell or caption.
		if !(HasSentenceFinal(cleaned) && len([]rune(raw)) >= minSentenceLen) {
			return true
		}
	}
	return KoreanCount(cleaned) < minKoreanRunes
}

// isAccountingDisclosure rejects accounting-standard note passages for all
// traits unconditionally.
func isAccountingDisclosure(cleaned string) bool {
	for _, term := range accountingVocabulary {
		if strings.Contains(cleaned, term) {
			return true
		}
	}
	return false
}

// isRelevant applies the trait's relevance gate to cleaned text.
func isRelevant(rule TraitRule, cleaned string) bool {
	if rule.Trait == model.TraitRegulation {
		return regulationRelevant(rule, cleaned)
	}
	for _, a := range rule.Anchors {
		if strings.Contains(cleaned, a) {
			return true
		}
	}
	for _, p := range rule.Phrases {
		if strings.Contains(cleaned, p) {
			return true
		}
	}
	return false
}

// regulationRelevant requires a core regulatory anchor and a strength term
// in the same sentence, or a self-sufficient event anchor anywhere. Weak
// lone mentions (준수, 관세, a bare core anchor) do not qualify.
func regulationRelevant(rule TraitRule, cleaned string) bool {
	for _, ev := range rule.EventAnchors {
		if strings.Contains(cleaned, ev) {
			return true
		}
	}
	for _, sentence := range splitSentences(cleaned) {
		var hasCore bool
		for _, core := range rule.CoreAnchors {
			if strings.Contains(sentence, core) {
				hasCore = true
				break
			}
		}
		if !hasCore {
			continue
		}
		for _, st := range rule.StrengthTerms {
			if strings.Contains(sentence, st) {
				return true
			}
		}
	}
	return false
}

// looksLikeTable detects table fragments pasted as text: separator-heavy
// lines, a high digit/symbol share, or columns aligned at stable offsets
// across three or more lines.
func looksLikeTable(raw string) bool {
	lines := nonEmptyLines(raw)

	if separatorDensity(lines) {
		return true
	}
	if digitSymbolRatio(raw) > digitSymbolMax {
		return true
	}
	return alignedColumns(lines)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		if strings.TrimSpace(ln) != "" {
			out = append(out, ln)
		}
	}
	return out
}

// separatorDensity: half or more of the lines carry table separators.
func separatorDensity(lines []string) bool {
	if len(lines) < tableMinLines {
		return false
	}
	sep := 0
	for _, ln := range lines {
		if strings.ContainsAny(ln, "|\t│┃") || strings.Count(ln, "  ") >= 3 {
			sep++
		}
	}
	return sep*2 >= len(lines)
}

func digitSymbolRatio(s string) float64 {
	total, hits := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '%' || r == '(' || r == ')' || r == '-' {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// alignedColumns checks whether runs of 2+ spaces start at low-variance
// offsets across lines — the signature of a fixed-width column layout.
func alignedColumns(lines []string) bool {
	if len(lines) < tableMinLines {
		return false
	}
	var offsets []int
	for _, ln := range lines {
		idx := strings.Index(ln, "  ")
		if idx < 0 {
			return false
		}
		offsets = append(offsets, idx)
	}

	mean := 0.0
	for _, o := range offsets {
		mean += float64(o)
	}
	mean /= float64(len(offsets))

	variance := 0.0
	for _, o := range offsets {
		d := float64(o) - mean
		variance += d * d
	}
	variance /= float64(len(offsets))
	return variance < 4.0
}

// noisePenalty scores residual noise on the raw text: leftover URLs, page
// boilerplate, or a low Korean ratio.
func noisePenalty(raw, cleaned string) int {
	penalty := 0
	if urlRe.MatchString(raw) {
		penalty -= 4
	}
	if pageWordRe.MatchString(raw) || strings.Contains(raw, "페이지") {
		penalty -= 2
	}
	if KoreanRatio(cleaned) < lowKoreanRatio {
		penalty -= 6
	}
	if penalty < -6 {
		penalty = -6
	}
	return penalty
}
