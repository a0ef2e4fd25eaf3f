// Package compare resolves the comparison basis for every tracked metric:
// year-over-year, vs-prior-end, quarter-over-quarter, or unavailable with a
// machine-readable reason.
package compare

import (
	"math"

	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/model"
	"github.com/dartlens/dartlens/internal/normalize"
)

// Trend neutrality is epsilon-bounded rather than exact: isolated-quarter
// values are multi-step float derivations and exact equality would report
// spurious up/down on drift.
const (
	trendRelEpsilon = 1e-9
	trendAbsEpsilon = 1e-6
)

// Resolver decides compare bases against a fixed, immutable statement
// universe. Construct once per analysis run.
type Resolver struct {
	statements []*model.Statement
	isolated   map[int]map[int]*normalize.IsolatedQuarter
}

// New builds a resolver over normalized statements and their isolated
// quarters (as produced by normalize.IsolateAll).
func New(statements []*model.Statement, isolated map[int]map[int]*normalize.IsolatedQuarter) *Resolver {
	return &Resolver{statements: statements, isolated: isolated}
}

// ResolveAll attaches a freshly computed KeyMetricsCompare to every
// statement. The maps are new references; item data is never touched.
func (r *Resolver) ResolveAll() {
	for _, st := range r.statements {
		st.KeyMetricsCompare = r.Statement(st)
	}
}

// Statement resolves every tracked metric for one statement. The result is
// total: each metric gets exactly one basis, and NONE always carries a
// reason code.
func (r *Resolver) Statement(cur *model.Statement) model.KeyMetricsCompare {
	out := make(model.KeyMetricsCompare, len(model.KeyMetrics))
	for _, spec := range model.KeyMetrics {
		out[spec.Concept] = r.resolveMetric(cur, spec)
	}
	return out
}

func (r *Resolver) resolveMetric(cur *model.Statement, spec model.MetricSpec) model.KeyMetricCompare {
	curVal := cur.Value(spec.Concept)
	if curVal == nil {
		return unavailable(model.ReasonMissingCurrentValue, "")
	}

	// 1. Year-over-year: same period type and quarter, previous fiscal year.
	if cmp, done := r.tryYoY(cur, spec, *curVal); done {
		return cmp
	}

	// 2. Balance-sheet instants fall back to the prior-period-end instant.
	if spec.Kind == model.MetricInstant {
		if cmp, done := tryPriorEnd(cur, spec, *curVal); done {
			return cmp
		}
		return unavailable(model.ReasonMissingPriorEnd, "")
	}

	// 3. Flow metrics fall back to isolated quarter-over-quarter.
	if cmp, done := r.tryQoQ(cur, spec); done {
		return cmp
	}

	// 4. Nothing matched.
	if r.priorYearHasOtherPeriod(cur, spec.Concept) {
		return unavailable(model.ReasonPeriodMismatch,
			"prior-year figure exists only under a different period basis")
	}
	return unavailable(model.ReasonMissingPrevYearValue, "")
}

// tryYoY returns (result, true) when the YoY branch fully decides the
// metric — including terminal mismatch outcomes. (zero, false) means the
// resolver should keep walking the fallback chain.
func (r *Resolver) tryYoY(cur *model.Statement, spec model.MetricSpec, curVal float64) (model.KeyMetricCompare, bool) {
	matches := r.prevYearMatches(cur)
	if len(matches) > 1 {
		return unavailable(model.ReasonMultipleCandidates,
			"more than one prior-year statement matches the period"), true
	}
	if len(matches) == 0 {
		return model.KeyMetricCompare{}, false
	}

	prev := matches[0]
	if prev.Scope != cur.Scope {
		return unavailable(model.ReasonScopeMismatch,
			"prior-year statement uses a different consolidation scope"), true
	}
	if prev.Meta.Currency != cur.Meta.Currency || prev.Meta.Unit != cur.Meta.Unit {
		return unavailable(model.ReasonUnitMismatch, ""), true
	}

	prevVal := prev.Value(spec.Concept)
	if prevVal == nil {
		return model.KeyMetricCompare{}, false // let QoQ / prior-end try
	}
	return computed(model.BasisYoY, curVal, *prevVal), true
}

// prevYearMatches finds statements of fiscalYear-1 with the same period
// type and quarter as cur.
func (r *Resolver) prevYearMatches(cur *model.Statement) []*model.Statement {
	var out []*model.Statement
	for _, s := range r.statements {
		if s == cur {
			continue
		}
		if s.Period.FiscalYear == cur.Period.FiscalYear-1 &&
			s.Period.PeriodType == cur.Period.PeriodType &&
			s.Period.Quarter == cur.Period.Quarter {
			out = append(out, s)
		}
	}
	return out
}

// priorYearHasOtherPeriod reports whether fiscalYear-1 delivered the concept
// under some non-matching period basis (e.g. FY only while cur is Q3 YTD).
func (r *Resolver) priorYearHasOtherPeriod(cur *model.Statement, c model.Concept) bool {
	for _, s := range r.statements {
		if s.Period.FiscalYear != cur.Period.FiscalYear-1 {
			continue
		}
		if s.Period.PeriodType == cur.Period.PeriodType && s.Period.Quarter == cur.Period.Quarter {
			continue
		}
		if s.Value(c) != nil {
			return true
		}
	}
	return false
}

func tryPriorEnd(cur *model.Statement, spec model.MetricSpec, curVal float64) (model.KeyMetricCompare, bool) {
	it, ok := cur.PriorEnd[spec.Concept]
	if !ok || !it.Defined() {
		return model.KeyMetricCompare{}, false
	}
	if it.Meta.Currency != cur.Meta.Currency || it.Meta.Unit != cur.Meta.Unit {
		return unavailable(model.ReasonUnitMismatch,
			"prior-end instant delivered under a different unit"), true
	}
	return computed(model.BasisPriorEnd, curVal, *it.Value), true
}

// tryQoQ compares the current isolated quarter against the immediately
// preceding isolated quarter of the same fiscal year. Both isolations must
// have succeeded, which requires at least three YTD anchors: with exactly
// two anchors only the current quarter is provable and QoQ stays off.
func (r *Resolver) tryQoQ(cur *model.Statement, spec model.MetricSpec) (model.KeyMetricCompare, bool) {
	if cur.Period.PeriodType != model.PeriodYTD {
		return model.KeyMetricCompare{}, false
	}
	year, q := cur.Period.FiscalYear, cur.Period.Quarter
	byQuarter := r.isolated[year]
	if byQuarter == nil {
		return model.KeyMetricCompare{}, false
	}
	curIso := byQuarter[q].Value(spec.Concept)
	prevIso := byQuarter[q-1].Value(spec.Concept)
	if curIso == nil || prevIso == nil {
		return model.KeyMetricCompare{}, false
	}
	zap.L().Debug("compare: qoq resolved from isolated quarters",
		zap.String("concept", string(spec.Concept)),
		zap.Int("fiscal_year", year),
		zap.Int("quarter", q),
	)
	return computed(model.BasisQoQ, *curIso, *prevIso), true
}

func unavailable(code model.CompareReasonCode, detail string) model.KeyMetricCompare {
	return model.KeyMetricCompare{
		CompareBasis: model.BasisNone,
		ReasonCode:   code,
		ReasonDetail: detail,
	}
}

func computed(basis model.CompareBasis, cur, prev float64) model.KeyMetricCompare {
	delta := cur - prev
	cmp := model.KeyMetricCompare{
		CompareBasis: basis,
		PrevValue:    &prev,
		Delta:        &delta,
		Trend:        trendOf(delta, cur, prev),
	}
	if denom := math.Abs(prev); denom > trendAbsEpsilon {
		pct := delta / denom * 100
		cmp.DeltaPct = &pct
	}
	return cmp
}

func trendOf(delta, cur, prev float64) model.Trend {
	eps := math.Max(trendAbsEpsilon, trendRelEpsilon*math.Max(math.Abs(cur), math.Abs(prev)))
	switch {
	case delta > eps:
		return model.TrendUp
	case delta < -eps:
		return model.TrendDown
	default:
		return model.TrendNeutral
	}
}
