package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartlens/dartlens/internal/model"
)

func fp(v float64) *float64 { return &v }

func dt(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func xbrlItem(name string, v float64, tag string) model.FinancialItem {
	return model.FinancialItem{
		Name:  name,
		Value: fp(v),
		Evidence: []model.EvidenceRef{{
			SourceType: model.SourceXBRL,
			FileID:     "xbrl-1",
			Locator:    model.EvidenceLocator{Tag: tag},
		}},
	}
}

func ytdFiling(id string, year, quarter int, revenue, opIncome float64) model.FileParseResult {
	return model.FileParseResult{
		File: model.UploadedFile{ID: id, Name: id + ".xml", Kind: model.FileXBRL},
		Statement: &model.RawStatement{
			FiscalYear: year,
			Quarter:    quarter,
			PeriodType: model.PeriodYTD,
			EndDate:    dt(year, quarter*3, 30),
			Currency:   "KRW",
			Unit:       1,
			Income: model.ItemMap{
				model.ConceptRevenue:         xbrlItem("매출액", revenue, "ifrs-full:Revenue"),
				model.ConceptOperatingIncome: xbrlItem("영업이익", opIncome, "dart:OperatingIncomeLoss"),
			},
		},
	}
}

// pdfFiling carries a narrative passage long enough to clear the evidence
// filters, under a section aligned with the cyclical trait.
func pdfFiling(id string) model.FileParseResult {
	text := "당사가 영위하는 산업은 전방 수요와 거시 경기에 따라 업황이 크게 변동하는 특성을 보입니다." +
		" 이러한 사업 환경의 변화는 당사의 매출과 수익성에 직접적인 영향을 미치고 있으며," +
		" 회사는 이에 대한 대응 방안을 지속적으로 검토하고 있습니다."
	return model.FileParseResult{
		File: model.UploadedFile{ID: id, Name: id + ".pdf", Kind: model.FilePDF},
		PDFPages: []model.PDFPage{
			{Page: 12, Section: "사업의 내용", Heading: "산업의 특성", Text: text},
		},
	}
}

func TestBuild_EndToEnd(t *testing.T) {
	p := New(nil)
	inputs := []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
		ytdFiling("xbrl-2024", 2024, 3, 10_000, 1_000),
		pdfFiling("pdf-1"),
	}

	b := p.Build(context.Background(), inputs)
	require.NotNil(t, b)
	require.Len(t, b.Statements, 2)
	assert.Equal(t, 2025, b.Statements[0].Period.FiscalYear, "latest statement first")

	// YoY comparison resolved on the latest statement.
	rev := b.Statements[0].KeyMetricsCompare[model.ConceptRevenue]
	require.Equal(t, model.BasisYoY, rev.CompareBasis)
	require.NotNil(t, rev.PrevValue)
	assert.InDelta(t, 10_000, *rev.PrevValue, 1e-9)
	assert.Equal(t, model.TrendUp, rev.Trend)

	require.Len(t, b.StepOutputs, 1)
	step := b.StepOutputs[0]
	require.Len(t, step.Findings, len(model.Traits))

	// Cyclical trait backed by the PDF passage.
	var cyc model.Finding
	for _, f := range step.Findings {
		if f.Trait == model.TraitCyclical {
			cyc = f
		}
	}
	require.NotEmpty(t, cyc.Evidence, "cyclical finding cites the narrative passage")
	assert.Equal(t, "pdf-1", cyc.Evidence[0].FileID)
	assert.Equal(t, 12, cyc.Evidence[0].Locator.Page)
	assert.False(t, cyc.Withheld())

	assert.NotEmpty(t, step.ReportText)
	assert.Contains(t, step.ReportText, "[경기순환]")
	assert.NotEmpty(t, b.AllEvidence)
}

func TestBuild_FindingsKeepTraitOrder(t *testing.T) {
	b := New(nil).Build(context.Background(), []model.FileParseResult{pdfFiling("pdf-1")})
	require.Len(t, b.StepOutputs, 1)
	findings := b.StepOutputs[0].Findings
	require.Len(t, findings, len(model.Traits))
	for i, trait := range model.Traits {
		assert.Equal(t, trait, findings[i].Trait)
		assert.NotEmpty(t, findings[i].ID)
	}
}

func TestBuild_NoNarrativeWithholdsJudgments(t *testing.T) {
	b := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
	})
	require.Len(t, b.StepOutputs, 1)
	for _, f := range b.StepOutputs[0].Findings {
		assert.True(t, f.Withheld(), "trait %s must be withheld without narrative", f.Trait)
		assert.Empty(t, f.Evidence)
	}
	assert.Contains(t, b.StepOutputs[0].ReportText, "근거: 데이터 부족")
}

func TestBuild_ParseErrorBecomesWarning(t *testing.T) {
	in := model.FileParseResult{
		File:       model.UploadedFile{ID: "bad-1", Name: "bad.xml", Kind: model.FileXBRL},
		ParseError: "unparseable context ref",
	}
	b := New(nil).Build(context.Background(), []model.FileParseResult{in})

	require.NotEmpty(t, b.Warnings)
	assert.Equal(t, string(model.ReasonParserError), b.Warnings[0].Code)
	assert.Equal(t, "bad-1", b.Warnings[0].FileID)
	assert.Empty(t, b.Statements)
}

func TestBuild_EmptyInputs(t *testing.T) {
	b := New(nil).Build(context.Background(), nil)
	require.NotNil(t, b)
	assert.Empty(t, b.Statements)
	assert.Empty(t, b.AllEvidence)
	assert.Zero(t, b.DataQuality.Coverage)
}

func TestBuild_ChartPlanNeedsTwoDefinedPoints(t *testing.T) {
	// Single statement: one point per metric, no series.
	one := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
	})
	assert.Nil(t, one.StepOutputs[0].ChartPlan)

	// Two same-criteria statements: revenue and operating income chart.
	two := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
		ytdFiling("xbrl-2024", 2024, 3, 10_000, 1_000),
	})
	plan := two.StepOutputs[0].ChartPlan
	require.NotNil(t, plan)
	require.NotEmpty(t, plan.Series)
	for _, s := range plan.Series {
		assert.Len(t, s.Labels, 2)
		assert.Len(t, s.Values, 2)
	}
	// Oldest first.
	assert.Contains(t, plan.Series[0].Labels[0], "2024")
}

func TestBuild_DataQualityCoverage(t *testing.T) {
	b := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
	})
	dq := b.DataQuality
	// Revenue + operating income defined out of twelve tracked metrics.
	assert.InDelta(t, 2.0/12.0, dq.Coverage, 1e-9)
	assert.Contains(t, dq.MissingConcepts, model.ConceptTotalAssets)
	assert.NotContains(t, dq.MissingConcepts, model.ConceptRevenue)
}

func TestBuild_GuidanceCheckpointFromPDF(t *testing.T) {
	in := pdfFiling("pdf-1")
	in.PDFPages = append(in.PDFPages, model.PDFPage{
		Page: 40, Section: "기타", Text: "회사는 2026년 매출 전망을 보수적으로 제시하였습니다.",
	})
	b := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
		in,
	})

	var kinds []model.CheckpointKind
	for _, cp := range b.StepOutputs[0].Checkpoints {
		kinds = append(kinds, cp.Kind)
		assert.NotEmpty(t, cp.Evidence, "every checkpoint is evidence-backed")
	}
	assert.Contains(t, kinds, model.CheckpointGuidance)
}

func TestBuild_CheckpointCitesOriginatingPDF(t *testing.T) {
	// The guidance keyword appears only in the second PDF; its checkpoint
	// must cite that file, not the first PDF of the batch.
	second := model.FileParseResult{
		File: model.UploadedFile{ID: "pdf-2", Name: "pdf-2.pdf", Kind: model.FilePDF},
		PDFPages: []model.PDFPage{
			{Page: 40, Section: "기타", Text: "회사는 2026년 매출 전망을 보수적으로 제시하였습니다."},
		},
	}
	b := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
		pdfFiling("pdf-1"),
		second,
	})

	var guidance *model.Checkpoint
	cps := b.StepOutputs[0].Checkpoints
	for i := range cps {
		if cps[i].Kind == model.CheckpointGuidance {
			guidance = &cps[i]
		}
	}
	require.NotNil(t, guidance)
	require.NotEmpty(t, guidance.Evidence)
	assert.Equal(t, "pdf-2", guidance.Evidence[0].FileID)
	assert.Equal(t, 40, guidance.Evidence[0].Locator.Page)
}

func TestBuild_QuarterIsolationEnablesQoQ(t *testing.T) {
	// Three cumulative filings from one fiscal year and no prior year: the
	// flow comparison falls back from YoY to standalone quarter-over-quarter.
	b := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("q1", 2025, 1, 100, 10),
		ytdFiling("q2", 2025, 2, 250, 25),
		ytdFiling("q3", 2025, 3, 450, 45),
	})
	require.Len(t, b.Statements, 3)

	rev := b.Statements[0].KeyMetricsCompare[model.ConceptRevenue]
	require.Equal(t, model.BasisQoQ, rev.CompareBasis)
	require.NotNil(t, rev.PrevValue)
	assert.InDelta(t, 150, *rev.PrevValue, 1e-9, "isolated Q2 revenue")
	require.NotNil(t, rev.Delta)
	assert.InDelta(t, 50, *rev.Delta, 1e-9, "isolated Q3 minus isolated Q2")
	assert.Equal(t, model.TrendUp, rev.Trend)
}

func TestBuild_AccountingDisclosureNeverCited(t *testing.T) {
	// The only narrative is an accounting-standard note: every trait must
	// withhold rather than cite it.
	note := "당사는 기업회계기준서 제1109호 금융상품에 따라 금융자산을 공정가치로 측정하며" +
		" 관련 손익을 당기손익으로 인식하고 있습니다. 이러한 회계정책은 연결재무제표 전반에 적용됩니다."
	in := model.FileParseResult{
		File: model.UploadedFile{ID: "pdf-1", Name: "report.pdf", Kind: model.FilePDF},
		PDFPages: []model.PDFPage{
			{Page: 88, Section: "주석", Heading: "금융상품", Text: note},
		},
	}

	b := New(nil).Build(context.Background(), []model.FileParseResult{in})
	for _, f := range b.StepOutputs[0].Findings {
		assert.True(t, f.Withheld(), "trait %s", f.Trait)
		assert.Empty(t, f.Evidence)
	}
	assert.Empty(t, b.AllEvidence)
}

func TestClassifyTopic(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"정부 규제 강화로 비용이 증가", "regulation"},
		{"시장 점유율 경쟁이 심화", "competition"},
		{"판가 인상을 통해 원가를 전가", "pricing"},
		{"전방 산업의 업황에 연동", "cyclicality"},
		{"제품 출하가 증가", "demand"},
		{"임직원 복리후생 제도를 운영", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyTopic(tc.text), tc.text)
	}
}

func TestCandidatePool_SplitsParagraphsWithSource(t *testing.T) {
	in := model.FileParseResult{
		File: model.UploadedFile{ID: "pdf-1", Kind: model.FilePDF},
		PDFPages: []model.PDFPage{
			{Page: 5, Section: "사업의 내용", Heading: "산업의 특성", Text: "첫 문단입니다.\n\n둘째 문단은 경기 변동을 다룹니다."},
		},
	}
	pool := CandidatePool([]model.FileParseResult{in})
	require.Len(t, pool, 2)
	assert.Empty(t, pool[0].Topic)
	assert.Equal(t, "cyclicality", pool[1].Topic)
	require.NotNil(t, pool[0].SourceInfo)
	assert.Equal(t, 5, pool[0].SourceInfo.Page)
	assert.Equal(t, "사업의 내용", pool[0].SourceInfo.Section)
}

func TestLoadInputs(t *testing.T) {
	doc := InputFile{
		Company: "테스트전자",
		Files:   []model.FileParseResult{pdfFiling("pdf-1")},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "inputs.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadInputs(path)
	require.NoError(t, err)
	assert.Equal(t, "테스트전자", got.Company)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "pdf-1", got.Files[0].File.ID)
}

func TestLoadInputs_Errors(t *testing.T) {
	_, err := LoadInputs(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"company":"x","files":[]}`), 0o644))
	_, err = LoadInputs(empty)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no parsed filings"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "empty bundle", Describe(nil))
	assert.Equal(t, "empty bundle", Describe(&model.AnalysisBundle{}))

	b := New(nil).Build(context.Background(), []model.FileParseResult{
		ytdFiling("xbrl-2025", 2025, 3, 12_000, 1_200),
	})
	out := Describe(b)
	assert.Contains(t, out, "1개 재무제표")
}
