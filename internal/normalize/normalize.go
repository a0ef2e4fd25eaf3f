// Package normalize converts raw parsed filings into canonical statements
// and derives standalone quarters from YTD cumulative anchors.
package normalize

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/model"
)

// Result holds the normalized statements plus everything that went wrong on
// the way. Normalization never fails hard: bad inputs become warnings.
type Result struct {
	Statements []*model.Statement
	Warnings   []model.Warning
	Dropped    int
}

// Statements normalizes every parsed filing into a canonical statement list
// sorted by period end date descending. Statements[0] is always the most
// recent period; every downstream consumer leans on that ordering.
func Statements(inputs []model.FileParseResult) Result {
	var res Result

	for _, in := range inputs {
		if in.ParseError != "" {
			res.Warnings = append(res.Warnings, model.Warning{
				Code:   string(model.ReasonParserError),
				Detail: in.ParseError,
				FileID: in.File.ID,
			})
		}
		if in.Statement == nil {
			continue
		}

		st, warn := normalizeOne(in.Statement, in.File)
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
			res.Dropped++
			continue
		}
		res.Statements = append(res.Statements, st)
	}

	sort.SliceStable(res.Statements, func(i, j int) bool {
		a, b := res.Statements[i].Period.EndDate, res.Statements[j].Period.EndDate
		return a.After(*b)
	})

	zap.L().Debug("normalize: statements built",
		zap.Int("count", len(res.Statements)),
		zap.Int("dropped", res.Dropped),
	)
	return res
}

// normalizeOne converts a single raw statement. Returns a warning instead of
// a statement when the period end date cannot be resolved.
func normalizeOne(raw *model.RawStatement, file model.UploadedFile) (*model.Statement, *model.Warning) {
	if raw.EndDate == nil {
		return nil, &model.Warning{
			Code:   "MISSING_END_DATE",
			Detail: fmt.Sprintf("statement from %s has no resolvable period end date", file.Name),
			FileID: file.ID,
		}
	}

	unit := raw.Unit
	if unit <= 0 {
		unit = 1
	}
	meta := model.MoneyMeta{Currency: raw.Currency, Unit: 1, SignConvention: "normalized"}

	st := &model.Statement{
		Period: model.PeriodKey{
			FiscalYear: raw.FiscalYear,
			Quarter:    raw.Quarter,
			PeriodType: raw.PeriodType,
			StartDate:  raw.StartDate,
			EndDate:    raw.EndDate,
		},
		Meta:       meta,
		Scope:      raw.Scope,
		Income:     rescaleItems(raw.Income, unit, meta),
		Cashflow:   rescaleItems(raw.Cashflow, unit, meta),
		Balance:    rescaleItems(raw.Balance, unit, meta),
		PriorEnd:   rescaleItems(raw.PriorEnd, unit, meta),
		SourceFile: file.ID,
	}

	deriveFreeCashFlow(st, file)
	return st, nil
}

// rescaleItems brings every value to the base unit (1 KRW) and stamps the
// canonical meta. A nil value stays nil: absence is never rescaled into 0.
func rescaleItems(items model.ItemMap, unit int64, meta model.MoneyMeta) model.ItemMap {
	if items == nil {
		return model.ItemMap{}
	}
	out := make(model.ItemMap, len(items))
	for c, it := range items {
		norm := model.FinancialItem{Name: it.Name, Meta: meta, Evidence: it.Evidence}
		if it.Value != nil {
			v := *it.Value * float64(unit)
			norm.Value = &v
		}
		out[c] = norm
	}
	return out
}

// deriveFreeCashFlow computes FCF = OCF - |CAPEX| when both components are
// reported and the parser did not deliver FCF itself. The derived item cites
// both components' evidence.
func deriveFreeCashFlow(st *model.Statement, file model.UploadedFile) {
	if it, ok := st.Cashflow[model.ConceptFreeCashFlow]; ok && it.Defined() {
		return
	}
	ocf := st.Cashflow[model.ConceptOperatingCF]
	capex := st.Cashflow[model.ConceptCapex]
	if !ocf.Defined() || !capex.Defined() {
		return
	}

	v := *ocf.Value - math.Abs(*capex.Value)
	ev := append(append([]model.EvidenceRef{}, ocf.Evidence...), capex.Evidence...)
	st.Cashflow[model.ConceptFreeCashFlow] = model.FinancialItem{
		Name:     "잉여현금흐름",
		Value:    &v,
		Meta:     st.Meta,
		Evidence: ev,
	}
	zap.L().Debug("normalize: derived free cash flow",
		zap.String("file", file.ID),
		zap.Float64("value", v),
	)
}
