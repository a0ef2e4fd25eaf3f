// Package ews derives next-quarter watch checkpoints from metric deltas and
// PDF keyword hits. Every checkpoint is evidence-backed; a rule that cannot
// cite a source stays silent.
package ews

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/compare"
	"github.com/dartlens/dartlens/internal/model"
)

// Numeric rule thresholds.
const (
	// capexSpikeRatio: |CAPEX| exceeding this multiple of OCF is a spike.
	capexSpikeRatio = 1.0
	// marginDropPoints: an operating-margin decline of this many
	// percentage points counts as a drop.
	marginDropPoints = 2.0
	// wcOutgrowthPoints: receivables/inventories growing this many
	// percentage points faster than revenue flags working capital.
	wcOutgrowthPoints = 10.0
	// keywordQuoteContext: runes of surrounding text quoted per hit.
	keywordQuoteContext = 120
)

// qualityKeywords flag audit and earnings-quality risks in narrative text.
var qualityKeywords = []string{
	"감사의견",
	"한정의견",
	"계속기업 불확실성",
	"내부회계관리제도",
	"회계처리 위반",
	"소송",
}

// guidanceKeywords flag forward-looking statements worth re-checking next
// quarter.
var guidanceKeywords = []string{
	"가이던스",
	"전망",
	"목표 매출",
	"수주잔고",
	"수주 잔고",
	"예상 실적",
}

// SourcePage is one narrative page tagged with the file it came from.
// Keyword hits cite the PDF they were actually found in, never a sibling
// upload.
type SourcePage struct {
	FileID string
	Page   model.PDFPage
}

// Checkpoints runs all five rules against the latest statement (with its
// comparisons resolved) and the PDF narrative pages.
func Checkpoints(cur *model.Statement, prev *model.Statement, pages []SourcePage) []model.Checkpoint {
	var out []model.Checkpoint
	rules := []func() *model.Checkpoint{
		func() *model.Checkpoint { return fcfOrMarginRule(cur, prev) },
		func() *model.Checkpoint { return capexSpikeRule(cur) },
		func() *model.Checkpoint { return workingCapitalRule(cur) },
		func() *model.Checkpoint { return keywordRule(model.CheckpointQualityKeyword, "수익 품질 관련 기재 확인", qualityKeywords, pages) },
		func() *model.Checkpoint { return keywordRule(model.CheckpointGuidance, "회사 제시 전망 대비 실적 점검", guidanceKeywords, pages) },
	}
	for _, rule := range rules {
		if cp := rule(); cp != nil {
			out = append(out, *cp)
		}
	}
	zap.L().Debug("ews: checkpoints evaluated", zap.Int("fired", len(out)))
	return out
}

// fcfOrMarginRule fires when free cash flow turned negative or the
// operating margin dropped against the comparison period. Requires both
// sides of the comparison plus item evidence.
func fcfOrMarginRule(cur, prev *model.Statement) *model.Checkpoint {
	if cur == nil {
		return nil
	}

	fcf, ok := cur.Cashflow[model.ConceptFreeCashFlow]
	if ok && fcf.Defined() && *fcf.Value < 0 && len(fcf.Evidence) > 0 {
		cmp := cur.KeyMetricsCompare[model.ConceptFreeCashFlow]
		if cmp.Available() && cmp.PrevValue != nil {
			return newCheckpoint(model.CheckpointFCF,
				"잉여현금흐름 적자 전환 여부 확인",
				fmt.Sprintf("당기 FCF %.0f, 비교기간 %.0f", *fcf.Value, *cmp.PrevValue),
				fcf.Evidence)
		}
	}

	if prev == nil {
		return nil
	}
	curMargin := compare.OperatingMargin(cur)
	prevMargin := compare.OperatingMargin(prev)
	if curMargin == nil || prevMargin == nil {
		return nil
	}
	if *prevMargin-*curMargin < marginDropPoints {
		return nil
	}
	op := cur.Income[model.ConceptOperatingIncome]
	rev := cur.Income[model.ConceptRevenue]
	ev := append(append([]model.EvidenceRef{}, op.Evidence...), rev.Evidence...)
	if len(ev) == 0 {
		return nil
	}
	return newCheckpoint(model.CheckpointFCF,
		"영업이익률 하락 지속 여부 확인",
		fmt.Sprintf("영업이익률 %.1f%% → %.1f%%", *prevMargin, *curMargin),
		ev)
}

// capexSpikeRule fires when |CAPEX| exceeds operating cash flow.
func capexSpikeRule(cur *model.Statement) *model.Checkpoint {
	if cur == nil {
		return nil
	}
	capex := cur.Cashflow[model.ConceptCapex]
	ocf := cur.Cashflow[model.ConceptOperatingCF]
	if !capex.Defined() || !ocf.Defined() {
		return nil
	}
	if *ocf.Value <= 0 {
		return nil
	}
	absCapex := *capex.Value
	if absCapex < 0 {
		absCapex = -absCapex
	}
	if absCapex <= *ocf.Value*capexSpikeRatio {
		return nil
	}
	ev := append(append([]model.EvidenceRef{}, capex.Evidence...), ocf.Evidence...)
	if len(ev) == 0 {
		return nil
	}
	return newCheckpoint(model.CheckpointCapexSpike,
		"영업현금흐름 대비 과도한 설비투자 점검",
		fmt.Sprintf("CAPEX %.0f vs OCF %.0f", absCapex, *ocf.Value),
		ev)
}

// workingCapitalRule fires when receivables or inventories outgrow revenue
// by a wide margin on the same comparison basis.
func workingCapitalRule(cur *model.Statement) *model.Checkpoint {
	if cur == nil {
		return nil
	}
	revCmp := cur.KeyMetricsCompare[model.ConceptRevenue]
	if !revCmp.Available() || revCmp.DeltaPct == nil {
		return nil
	}

	for _, c := range []model.Concept{model.ConceptReceivables, model.ConceptInventories} {
		cmp := cur.KeyMetricsCompare[c]
		if !cmp.Available() || cmp.DeltaPct == nil {
			continue
		}
		if *cmp.DeltaPct-*revCmp.DeltaPct < wcOutgrowthPoints {
			continue
		}
		item := cur.Balance[c]
		if len(item.Evidence) == 0 {
			continue
		}
		name := item.Name
		if name == "" {
			// Parsers may drop the source label; fall back to the canonical one.
			if spec := model.MetricByConcept(c); spec != nil {
				name = spec.Label
			}
		}
		return newCheckpoint(model.CheckpointWorkingCapital,
			"운전자본 악화 추세 점검",
			fmt.Sprintf("%s 증가율 %.1f%% vs 매출 증가율 %.1f%%", name, *cmp.DeltaPct, *revCmp.DeltaPct),
			item.Evidence)
	}
	return nil
}

// keywordRule fires when any trigger keyword literally appears in the PDF
// narrative (case-insensitive substring). Evidence is deduplicated by
// (file, page, quote).
func keywordRule(kind model.CheckpointKind, title string, keywords []string, pages []SourcePage) *model.Checkpoint {
	type evKey struct {
		fileID string
		page   int
		quote  string
	}
	seen := make(map[evKey]bool)
	var ev []model.EvidenceRef
	var hits []string

	for _, sp := range pages {
		page := sp.Page
		lower := strings.ToLower(page.Text)
		for _, kw := range keywords {
			idx := strings.Index(lower, strings.ToLower(kw))
			if idx < 0 {
				continue
			}
			quote := contextQuote(page.Text, idx, len(kw))
			key := evKey{fileID: sp.FileID, page: page.Page, quote: quote}
			if seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, kw)
			ev = append(ev, model.EvidenceRef{
				SourceType: model.SourcePDF,
				FileID:     sp.FileID,
				Locator: model.EvidenceLocator{
					Page:    page.Page,
					Section: page.Section,
					Heading: page.Heading,
				},
				Quote: quote,
			})
		}
	}

	if len(ev) == 0 {
		return nil
	}
	return newCheckpoint(kind, title,
		fmt.Sprintf("키워드 검출: %s", strings.Join(hits, ", ")), ev)
}

// contextQuote extracts the literal passage around a keyword hit.
func contextQuote(text string, byteIdx, kwByteLen int) string {
	if byteIdx+kwByteLen > len(text) {
		kwByteLen = len(text) - byteIdx
	}
	prefix := []rune(text[:byteIdx])
	kw := text[byteIdx : byteIdx+kwByteLen]
	suffix := []rune(text[byteIdx+kwByteLen:])

	half := keywordQuoteContext / 2
	if len(prefix) > half {
		prefix = prefix[len(prefix)-half:]
	}
	if len(suffix) > half {
		suffix = suffix[:half]
	}
	return strings.TrimSpace(string(prefix) + kw + string(suffix))
}

func newCheckpoint(kind model.CheckpointKind, title, detail string, ev []model.EvidenceRef) *model.Checkpoint {
	return &model.Checkpoint{
		ID:       uuid.New().String(),
		Kind:     kind,
		Title:    title,
		Detail:   detail,
		Evidence: ev,
	}
}
