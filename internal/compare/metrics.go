package compare

import (
	"math"

	"github.com/dartlens/dartlens/internal/model"
)

// minMarginDenominator is the smallest absolute revenue (in base KRW) a
// margin ratio may be computed over. Below it the ratio is skipped, not
// produced as a near-infinite number.
const minMarginDenominator = 1_000_000

// Margin returns numerator/denominator as a percentage, or nil when either
// side is missing or the denominator is too small to divide by.
func Margin(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil {
		return nil
	}
	if math.Abs(*denominator) < minMarginDenominator {
		return nil
	}
	m := *numerator / *denominator * 100
	return &m
}

// OperatingMargin computes operating income over revenue for a statement.
func OperatingMargin(s *model.Statement) *float64 {
	return Margin(s.Value(model.ConceptOperatingIncome), s.Value(model.ConceptRevenue))
}

// NetMargin computes net income over revenue for a statement.
func NetMargin(s *model.Statement) *float64 {
	return Margin(s.Value(model.ConceptNetIncome), s.Value(model.ConceptRevenue))
}

// DebtRatio computes total liabilities over total equity (the Korean
// 부채비율 convention), skipped when equity is near zero or negative data
// is missing.
func DebtRatio(s *model.Statement) *float64 {
	return Margin(s.Value(model.ConceptTotalLiabilities), s.Value(model.ConceptTotalEquity))
}
