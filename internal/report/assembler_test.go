package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartlens/dartlens/internal/model"
)

func ref(page int, section, heading, quote string) model.EvidenceRef {
	return model.EvidenceRef{
		SourceType: model.SourcePDF,
		FileID:     "pdf-1",
		Locator:    model.EvidenceLocator{Page: page, Section: section, Heading: heading},
		Quote:      quote,
	}
}

func TestRender_FixedTraitOrder(t *testing.T) {
	findings := []model.Finding{
		{Trait: model.TraitRegulation, Observation: "규제 부담이 확대되고 있음", Evidence: []model.EvidenceRef{ref(30, "규제", "규제 환경", "규제 인용")}},
		{Trait: model.TraitCyclical, Observation: "수요가 경기에 민감함", Evidence: []model.EvidenceRef{ref(12, "사업의 내용", "산업의 특성", "경기 인용")}},
	}

	out := NewAssembler(nil).Render(findings)
	cyc := strings.Index(out, "[경기순환]")
	reg := strings.Index(out, "[규제환경]")
	require.Positive(t, cyc)
	require.Positive(t, reg)
	assert.Less(t, cyc, reg, "cyclical renders before regulation regardless of input order")
}

func TestRender_FootnoteDedup(t *testing.T) {
	// P5: identical (page, section, heading, quote-prefix) collapses to one
	// footnote number.
	shared := ref(12, "사업의 내용", "산업의 특성", "공유되는 동일 인용문")
	findings := []model.Finding{
		{Trait: model.TraitCyclical, Observation: "관찰 하나", Evidence: []model.EvidenceRef{shared}},
		{Trait: model.TraitCompetition, Observation: "관찰 둘", Evidence: []model.EvidenceRef{shared}},
	}

	out := NewAssembler(nil).Render(findings)
	body, notes, found := strings.Cut(out, "### 근거")
	require.True(t, found)
	assert.Equal(t, 2, strings.Count(body, "[E1]"), "both findings cite E1")
	assert.Equal(t, 1, strings.Count(notes, "[E1]"), "one footnote entry")
	assert.NotContains(t, out, "[E2]")
}

func TestRender_Deterministic(t *testing.T) {
	findings := []model.Finding{
		{Trait: model.TraitCyclical, Observation: "관찰", Evidence: []model.EvidenceRef{ref(1, "s", "h", "인용 A")}},
		{Trait: model.TraitPricingPower, Observation: "관찰", Evidence: []model.EvidenceRef{ref(2, "s", "h", "인용 B")}},
	}
	a := NewAssembler(nil)
	assert.Equal(t, a.Render(findings), a.Render(findings))
}

func TestRender_WithheldGetsNoFootnote(t *testing.T) {
	findings := []model.Finding{
		{Trait: model.TraitPricingPower, Observation: "판단 보류", ReasonCode: model.EvidenceLowQuality},
	}
	out := NewAssembler(nil).Render(findings)
	assert.Contains(t, out, "근거: 데이터 부족")
	assert.NotContains(t, out, "[E1]")
	assert.NotContains(t, out, "### 근거")
}

func TestRender_QuoteStrippedFromBody(t *testing.T) {
	quote := "전방 산업의 경기 변동에 따라 수요가 변동합니다"
	findings := []model.Finding{
		{
			Trait:       model.TraitCyclical,
			Observation: "보고서는 다음과 같이 기술함: " + quote,
			Evidence:    []model.EvidenceRef{ref(12, "사업의 내용", "산업의 특성", quote)},
		},
	}
	out := NewAssembler(nil).Render(findings)

	body := out[:strings.Index(out, "### 근거")]
	assert.NotContains(t, body, quote, "quote lives only in the footnote")
	assert.Contains(t, out, "[E1]")
}

func TestRender_ConflictingSectionSuppressed(t *testing.T) {
	// A cyclical finding backed by evidence from the "경쟁" section must not
	// display that mismatched label.
	findings := []model.Finding{
		{
			Trait:       model.TraitCyclical,
			Observation: "경기 민감도가 높음",
			Evidence:    []model.EvidenceRef{ref(20, "경쟁 현황", "경쟁사", "업황 관련 인용")},
		},
	}
	out := NewAssembler(nil).Render(findings)
	require.Contains(t, out, "[E1] p.20")
	assert.NotContains(t, out, "경쟁 현황 >")

	// The same section under the competition trait is aligned and shown.
	findings[0].Trait = model.TraitCompetition
	out = NewAssembler(nil).Render(findings)
	assert.Contains(t, out, "경쟁 현황")
}

func TestRender_ImplicationLine(t *testing.T) {
	findings := []model.Finding{
		{
			Trait:       model.TraitCompetition,
			Observation: "과점 구도가 유지됨",
			Implication: "가격 경쟁 압력은 제한적",
			Evidence:    []model.EvidenceRef{ref(15, "경쟁", "경쟁 현황", "과점 인용")},
		},
	}
	out := NewAssembler(nil).Render(findings)
	assert.Contains(t, out, "시사점: 가격 경쟁 압력은 제한적")
}

func TestRender_EmptyFindings(t *testing.T) {
	out := NewAssembler(nil).Render(nil)
	assert.Contains(t, out, "## 산업 특성 분석")
	assert.NotContains(t, out, "### 근거")
}
