package normalize

import (
	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/model"
)

// IsolatedQuarter is a standalone quarter derived by subtracting two
// adjacent YTD cumulative anchors. Ephemeral: it feeds QoQ eligibility only
// and is never persisted into the statement list.
type IsolatedQuarter struct {
	FiscalYear int
	Quarter    int
	Meta       model.MoneyMeta
	// Values holds the isolated flow values. A concept missing on either
	// anchor is absent here, not zero.
	Values map[model.Concept]float64
}

// Value returns the isolated value for a concept, or nil when it could not
// be derived.
func (iq *IsolatedQuarter) Value(c model.Concept) *float64 {
	if iq == nil {
		return nil
	}
	if v, ok := iq.Values[c]; ok {
		return &v
	}
	return nil
}

// IsolateQuarter derives the standalone quarter between two YTD anchors.
// Both must share the fiscal year, sit on adjacent quarter boundaries
// (later = earlier + 1) and be measured under the same criteria. Returns
// nil when the pair is not isolable.
func IsolateQuarter(later, earlier *model.Statement) *IsolatedQuarter {
	if later == nil || earlier == nil {
		return nil
	}
	if later.Period.PeriodType != model.PeriodYTD || earlier.Period.PeriodType != model.PeriodYTD {
		return nil
	}
	if later.Period.FiscalYear != earlier.Period.FiscalYear {
		return nil
	}
	if later.Period.Quarter != earlier.Period.Quarter+1 {
		return nil
	}
	if !model.SameCriteria(later.Period, earlier.Period, later.Meta, earlier.Meta) {
		return nil
	}
	if later.Scope != earlier.Scope {
		return nil
	}

	iq := &IsolatedQuarter{
		FiscalYear: later.Period.FiscalYear,
		Quarter:    later.Period.Quarter,
		Meta:       later.Meta,
		Values:     make(map[model.Concept]float64),
	}

	for _, section := range []func(*model.Statement) model.ItemMap{
		func(s *model.Statement) model.ItemMap { return s.Income },
		func(s *model.Statement) model.ItemMap { return s.Cashflow },
	} {
		lm, em := section(later), section(earlier)
		for c, lit := range lm {
			eit, ok := em[c]
			if !ok || !lit.Defined() || !eit.Defined() {
				continue // no extrapolation: both anchors must report
			}
			if lit.Meta.Currency != eit.Meta.Currency || lit.Meta.Unit != eit.Meta.Unit {
				continue
			}
			iq.Values[c] = *lit.Value - *eit.Value
		}
	}

	zap.L().Debug("normalize: quarter isolated",
		zap.Int("fiscal_year", iq.FiscalYear),
		zap.Int("quarter", iq.Quarter),
		zap.Int("concepts", len(iq.Values)),
	)
	return iq
}

// IsolateAll derives every standalone quarter available from the normalized
// statement list, keyed by fiscal year then quarter. With a single YTD
// anchor per year nothing is isolable and the map stays empty for that year.
func IsolateAll(statements []*model.Statement) map[int]map[int]*IsolatedQuarter {
	byYear := make(map[int][]*model.Statement)
	for _, s := range statements {
		if s.Period.PeriodType == model.PeriodYTD {
			byYear[s.Period.FiscalYear] = append(byYear[s.Period.FiscalYear], s)
		}
	}

	out := make(map[int]map[int]*IsolatedQuarter)
	for year, anchors := range byYear {
		byQuarter := make(map[int]*model.Statement, len(anchors))
		for _, s := range anchors {
			if _, dup := byQuarter[s.Period.Quarter]; dup {
				// Two filings covering the same YTD span: keep the first
				// (most recent by sort order). The resolver reports
				// MULTIPLE_CANDIDATES when it hits the duplicate itself.
				continue
			}
			byQuarter[s.Period.Quarter] = s
		}
		for q := 2; q <= 4; q++ {
			iq := IsolateQuarter(byQuarter[q], byQuarter[q-1])
			if iq == nil {
				continue
			}
			if out[year] == nil {
				out[year] = make(map[int]*IsolatedQuarter)
			}
			out[year][q] = iq
		}
	}
	return out
}
