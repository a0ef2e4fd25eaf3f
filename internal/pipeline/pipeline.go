// Package pipeline orchestrates one analysis run: normalize inputs, resolve
// comparisons, select evidence, run the early-warning rules and assemble the
// report. A Build call is a single pure pass over immutable inputs.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dartlens/dartlens/internal/compare"
	"github.com/dartlens/dartlens/internal/evidence"
	"github.com/dartlens/dartlens/internal/ews"
	"github.com/dartlens/dartlens/internal/model"
	"github.com/dartlens/dartlens/internal/normalize"
	"github.com/dartlens/dartlens/internal/report"
)

// analysisErrorDetail is the only message an unexpected failure may surface.
const analysisErrorDetail = "분석 중 오류"

// traitLines holds the deterministic observation/implication templates per
// trait. Narrative beyond these lines comes only from cited evidence.
var traitLines = map[model.Trait]struct{ observation, implication string }{
	model.TraitCyclical: {
		observation: "사업보고서에서 경기 민감성 관련 기술이 확인됨",
		implication: "업황 전환 구간에서 실적 변동성이 확대될 수 있음",
	},
	model.TraitCompetition: {
		observation: "시장 경쟁 구도에 대한 기술이 확인됨",
		implication: "점유율 방어 비용이 수익성에 영향을 줄 수 있음",
	},
	model.TraitPricingPower: {
		observation: "판가 및 가격 전가력 관련 기술이 확인됨",
		implication: "원가 상승 국면의 마진 방어력을 좌우함",
	},
	model.TraitRegulation: {
		observation: "규제 환경 관련 기술이 확인됨",
		implication: "규제 변화가 비용 구조에 직접 반영될 수 있음",
	},
}

// Pipeline wires the core components for repeated Build calls. Stateless
// between runs; safe for concurrent use.
type Pipeline struct {
	selector  *evidence.Selector
	assembler *report.Assembler
}

// New builds a pipeline; nil rules use the built-in trait tables.
func New(rules evidence.Rules) *Pipeline {
	return &Pipeline{
		selector:  evidence.NewSelector(rules),
		assembler: report.NewAssembler(rules),
	}
}

// Build runs one complete analysis. It never returns an error: every failure
// mode degrades into warnings on the bundle, and an unexpected panic is
// caught at this boundary and mapped to a generic message.
func (p *Pipeline) Build(ctx context.Context, inputs []model.FileParseResult) (bundle *model.AnalysisBundle) {
	bundle = &model.AnalysisBundle{}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: recovered from panic", zap.Any("panic", r))
			bundle.Warnings = append(bundle.Warnings, model.Warning{
				Code:   "ANALYSIS_ERROR",
				Detail: analysisErrorDetail,
			})
		}
	}()

	res := normalize.Statements(inputs)
	bundle.Statements = res.Statements
	bundle.Warnings = append(bundle.Warnings, res.Warnings...)

	isolated := normalize.IsolateAll(res.Statements)
	compare.New(res.Statements, isolated).ResolveAll()

	findings := p.selectFindings(ctx, CandidatePool(inputs))

	step := model.StepOutput{
		Step:        1,
		Title:       "산업 특성 및 조기경보 점검",
		Findings:    findings,
		Checkpoints: checkpoints(res.Statements, inputs),
		ChartPlan:   chartPlan(res.Statements),
	}
	step.ReportText = p.assembler.Render(findings)

	bundle.StepOutputs = []model.StepOutput{step}
	bundle.AllEvidence = collectEvidence(step)
	bundle.DataQuality = dataQuality(bundle.Latest(), res.Dropped)

	zap.L().Info("pipeline: bundle built",
		zap.Int("statements", len(bundle.Statements)),
		zap.Int("findings", len(step.Findings)),
		zap.Int("checkpoints", len(step.Checkpoints)),
		zap.Int("warnings", len(bundle.Warnings)),
	)
	return bundle
}

// selectFindings runs the evidence selector for each trait. Traits are
// independent, so selection fans out across goroutines; the result slice
// keeps the fixed trait order regardless of completion order.
func (p *Pipeline) selectFindings(ctx context.Context, pool []model.Candidate) []model.Finding {
	findings := make([]model.Finding, len(model.Traits))

	g, _ := errgroup.WithContext(ctx)
	for i, trait := range model.Traits {
		i, trait := i, trait
		g.Go(func() error {
			findings[i] = p.findingFor(trait, pool)
			return nil
		})
	}
	// Selection never errors; failures are reason codes on the finding.
	_ = g.Wait()

	return findings
}

// findingFor converts one selection outcome into a finding. A withheld
// selection keeps its reason code and renders as a held judgment, never a
// fabricated narrative.
func (p *Pipeline) findingFor(trait model.Trait, pool []model.Candidate) model.Finding {
	sel := p.selector.Pick(trait, pool)

	f := model.Finding{
		ID:         uuid.New().String(),
		Trait:      trait,
		ReasonCode: sel.ReasonCode,
	}
	if sel.Best == nil {
		f.Observation = "판단 보류"
		return f
	}

	lines := traitLines[trait]
	f.Observation = lines.observation
	f.Implication = lines.implication
	if ref := sel.Ref(model.SourcePDF); ref != nil {
		f.Evidence = []model.EvidenceRef{*ref}
	}
	return f
}

// checkpoints runs the EWS rules against the latest statement and the PDF
// narrative of the inputs.
func checkpoints(statements []*model.Statement, inputs []model.FileParseResult) []model.Checkpoint {
	cur := latestOf(statements)
	if cur == nil {
		return nil
	}

	var pages []ews.SourcePage
	for _, in := range inputs {
		for _, pg := range in.PDFPages {
			pages = append(pages, ews.SourcePage{FileID: in.File.ID, Page: pg})
		}
	}

	return ews.Checkpoints(cur, prevYearOf(statements, cur), pages)
}

func latestOf(statements []*model.Statement) *model.Statement {
	if len(statements) == 0 {
		return nil
	}
	return statements[0]
}

// prevYearOf finds the same-period statement one fiscal year back, used for
// the margin-drop comparison.
func prevYearOf(statements []*model.Statement, cur *model.Statement) *model.Statement {
	for _, s := range statements {
		if s.Period.FiscalYear == cur.Period.FiscalYear-1 &&
			s.Period.PeriodType == cur.Period.PeriodType &&
			s.Period.Quarter == cur.Period.Quarter {
			return s
		}
	}
	return nil
}

// chartPlan builds trend series for metrics with at least two defined values
// across statements measured under the same criteria as the latest one.
func chartPlan(statements []*model.Statement) *model.ChartPlan {
	latest := latestOf(statements)
	if latest == nil {
		return nil
	}

	// Oldest first for plotting.
	var eligible []*model.Statement
	for i := len(statements) - 1; i >= 0; i-- {
		s := statements[i]
		if model.SameCriteria(latest.Period, s.Period, latest.Meta, s.Meta) {
			eligible = append(eligible, s)
		}
	}

	plan := &model.ChartPlan{}
	for _, spec := range model.KeyMetrics {
		labels := make([]string, 0, len(eligible))
		values := make([]*float64, 0, len(eligible))
		defined := 0
		for _, s := range eligible {
			v := s.Value(spec.Concept)
			labels = append(labels, s.Period.Label())
			values = append(values, v)
			if v != nil {
				defined++
			}
		}
		if defined >= 2 {
			plan.Series = append(plan.Series, model.ChartSeries{
				Concept: spec.Concept,
				Labels:  labels,
				Values:  values,
			})
		}
	}
	if len(plan.Series) == 0 {
		return nil
	}
	return plan
}

// collectEvidence gathers every citation the step emitted, in render order.
func collectEvidence(step model.StepOutput) []model.EvidenceRef {
	var out []model.EvidenceRef
	for _, f := range step.Findings {
		out = append(out, f.Evidence...)
	}
	for _, c := range step.Checkpoints {
		out = append(out, c.Evidence...)
	}
	return out
}

// dataQuality reports tracked-metric coverage on the latest statement.
func dataQuality(latest *model.Statement, dropped int) model.DataQuality {
	dq := model.DataQuality{StatementsDropped: dropped}
	if latest == nil {
		return dq
	}
	defined := 0
	for _, spec := range model.KeyMetrics {
		if latest.Value(spec.Concept) != nil {
			defined++
		} else {
			dq.MissingConcepts = append(dq.MissingConcepts, spec.Concept)
		}
	}
	dq.Coverage = float64(defined) / float64(len(model.KeyMetrics))
	return dq
}

// Describe summarizes a bundle for logs and CLI output.
func Describe(b *model.AnalysisBundle) string {
	if b == nil || b.Latest() == nil {
		return "empty bundle"
	}
	return fmt.Sprintf("%s 기준 %d개 재무제표, 지표 커버리지 %.0f%%, 경고 %d건",
		b.Latest().Period.Label(), len(b.Statements), b.DataQuality.Coverage*100, len(b.Warnings))
}
