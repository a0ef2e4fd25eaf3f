// Package report renders the step-1 industry characteristics text:
// deterministic, footnoted, with deduplicated citations.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dartlens/dartlens/internal/evidence"
	"github.com/dartlens/dartlens/internal/model"
)

// quotePrefixLen bounds the dedup key: citations that agree on location and
// the first 200 normalized runes of the quote are the same evidence.
const quotePrefixLen = 200

// withheldLine is rendered in place of a citation for withheld judgments.
const withheldLine = "근거: 데이터 부족"

var traitLabels = map[model.Trait]string{
	model.TraitCyclical:     "경기순환",
	model.TraitCompetition:  "경쟁강도",
	model.TraitPricingPower: "가격결정력",
	model.TraitRegulation:   "규제환경",
}

// footnoteKey identifies one piece of evidence for deduplication.
type footnoteKey struct {
	page        int
	section     string
	heading     string
	quotePrefix string
}

type footnote struct {
	num      int
	ref      model.EvidenceRef
	suppress bool // hide section/heading when it contradicts the trait
}

// Assembler renders findings into report text. Trait rules drive the
// section-mismatch suppression.
type Assembler struct {
	rules evidence.Rules
}

// NewAssembler builds an assembler; nil rules fall back to defaults.
func NewAssembler(rules evidence.Rules) *Assembler {
	if rules == nil {
		rules = evidence.DefaultRules()
	}
	return &Assembler{rules: rules}
}

// Render emits the observation/implication block per trait in fixed order,
// followed by the footnote list. Rendering is deterministic: the same
// findings produce byte-identical output, and findings citing identical
// evidence share one footnote number.
func (a *Assembler) Render(findings []model.Finding) string {
	var b strings.Builder
	b.WriteString("## 산업 특성 분석\n")

	numbers := make(map[footnoteKey]int)
	var notes []footnote

	for _, trait := range model.Traits {
		f, ok := findingFor(findings, trait)
		if !ok {
			continue
		}

		fmt.Fprintf(&b, "- [%s] ", traitLabels[trait])

		if f.Withheld() || len(f.Evidence) == 0 {
			// A withheld judgment gets no footnote, ever.
			b.WriteString(f.Observation)
			b.WriteString("\n  ")
			b.WriteString(withheldLine)
			b.WriteString("\n")
			continue
		}

		body := f.Observation
		var markers []string
		for _, ref := range f.Evidence {
			body = stripQuote(body, ref.Quote)
			num := a.footnoteNumber(trait, ref, numbers, &notes)
			markers = append(markers, fmt.Sprintf("[E%d]", num))
		}
		b.WriteString(strings.TrimSpace(body))
		b.WriteString(" ")
		b.WriteString(strings.Join(markers, ""))
		b.WriteString("\n")

		if f.Implication != "" {
			fmt.Fprintf(&b, "  시사점: %s\n", f.Implication)
		}
	}

	if len(notes) > 0 {
		b.WriteString("\n### 근거\n")
		for _, n := range notes {
			b.WriteString(renderFootnote(n))
		}
	}

	return b.String()
}

// footnoteNumber assigns numbers by first appearance and collapses
// duplicate evidence onto one number.
func (a *Assembler) footnoteNumber(trait model.Trait, ref model.EvidenceRef, numbers map[footnoteKey]int, notes *[]footnote) int {
	key := footnoteKey{
		page:        ref.Locator.Page,
		section:     ref.Locator.Section,
		heading:     ref.Locator.Heading,
		quotePrefix: normalizedPrefix(ref.Quote),
	}
	if num, ok := numbers[key]; ok {
		return num
	}
	num := len(*notes) + 1
	numbers[key] = num
	*notes = append(*notes, footnote{
		num:      num,
		ref:      ref,
		suppress: a.sectionConflicts(trait, ref.Locator.Section),
	})
	return num
}

// sectionConflicts reports whether the evidence section label contradicts
// the trait it supports. Showing "경쟁" under a cyclicality finding would
// mislead the reader about why the evidence was chosen.
func (a *Assembler) sectionConflicts(trait model.Trait, section string) bool {
	if section == "" {
		return false
	}
	for _, c := range a.rules[trait].ConflictSections {
		if strings.Contains(section, c) {
			return true
		}
	}
	return false
}

func renderFootnote(n footnote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[E%d]", n.num)
	if n.ref.Locator.Page > 0 {
		fmt.Fprintf(&b, " p.%d", n.ref.Locator.Page)
	}
	if !n.suppress {
		if n.ref.Locator.Section != "" {
			fmt.Fprintf(&b, " %s", n.ref.Locator.Section)
		}
		if n.ref.Locator.Heading != "" {
			fmt.Fprintf(&b, " > %s", n.ref.Locator.Heading)
		}
	}
	if n.ref.Quote != "" {
		fmt.Fprintf(&b, " — “%s”", truncateRunes(n.ref.Quote, 100))
	}
	b.WriteString("\n")
	return b.String()
}

// findingFor returns the first finding for a trait.
func findingFor(findings []model.Finding, trait model.Trait) (model.Finding, bool) {
	for _, f := range findings {
		if f.Trait == trait {
			return f, true
		}
	}
	return model.Finding{}, false
}

// stripQuote removes literal quote text from the body so that source
// passages appear only in footnotes.
func stripQuote(body, quote string) string {
	if quote == "" {
		return body
	}
	nb, nq := norm.NFC.String(body), norm.NFC.String(quote)
	if strings.Contains(nb, nq) {
		return strings.TrimSpace(strings.ReplaceAll(nb, nq, ""))
	}
	return body
}

func normalizedPrefix(quote string) string {
	return truncateRunes(norm.NFC.String(quote), quotePrefixLen)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
