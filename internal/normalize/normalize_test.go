package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dartlens/dartlens/internal/model"
)

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fp(v float64) *float64 { return &v }

func rawYTD(year, quarter int, endMonth int, income map[model.Concept]*float64) *model.RawStatement {
	items := model.ItemMap{}
	for c, v := range income {
		items[c] = model.FinancialItem{Name: string(c), Value: v}
	}
	return &model.RawStatement{
		FiscalYear: year,
		Quarter:    quarter,
		PeriodType: model.PeriodYTD,
		StartDate:  date(year, 1, 1),
		EndDate:    date(year, endMonth, 30),
		Currency:   "KRW",
		Unit:       1,
		Income:     items,
		Cashflow:   model.ItemMap{},
		Balance:    model.ItemMap{},
	}
}

func TestStatements_SortedByEndDateDescending(t *testing.T) {
	inputs := []model.FileParseResult{
		{File: model.UploadedFile{ID: "a"}, Statement: rawYTD(2025, 2, 6, nil)},
		{File: model.UploadedFile{ID: "b"}, Statement: rawYTD(2025, 3, 9, nil)},
		{File: model.UploadedFile{ID: "c"}, Statement: rawYTD(2025, 1, 3, nil)},
	}
	res := Statements(inputs)
	require.Len(t, res.Statements, 3)
	assert.Equal(t, 3, res.Statements[0].Period.Quarter, "statements[0] must be latest")
	assert.Equal(t, 2, res.Statements[1].Period.Quarter)
	assert.Equal(t, 1, res.Statements[2].Period.Quarter)
}

func TestStatements_MissingEndDateDroppedWithWarning(t *testing.T) {
	raw := rawYTD(2025, 3, 9, nil)
	raw.EndDate = nil
	res := Statements([]model.FileParseResult{
		{File: model.UploadedFile{ID: "x", Name: "broken.xml"}, Statement: raw},
	})
	assert.Empty(t, res.Statements)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "MISSING_END_DATE", res.Warnings[0].Code)
	assert.Equal(t, "x", res.Warnings[0].FileID)
}

func TestStatements_ParseErrorBecomesWarning(t *testing.T) {
	res := Statements([]model.FileParseResult{
		{File: model.UploadedFile{ID: "bad"}, ParseError: "tag soup"},
	})
	assert.Empty(t, res.Statements)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, string(model.ReasonParserError), res.Warnings[0].Code)
}

func TestStatements_UnitRescaledToBase(t *testing.T) {
	raw := rawYTD(2025, 3, 9, map[model.Concept]*float64{model.ConceptRevenue: fp(1500)})
	raw.Unit = 1_000_000
	res := Statements([]model.FileParseResult{{File: model.UploadedFile{ID: "f"}, Statement: raw}})
	require.Len(t, res.Statements, 1)
	st := res.Statements[0]
	assert.Equal(t, int64(1), st.Meta.Unit)
	assert.Equal(t, 1_500_000_000.0, *st.Value(model.ConceptRevenue))
}

func TestStatements_MissingStaysNil(t *testing.T) {
	raw := rawYTD(2025, 3, 9, map[model.Concept]*float64{model.ConceptRevenue: nil})
	raw.Unit = 1_000
	res := Statements([]model.FileParseResult{{File: model.UploadedFile{ID: "f"}, Statement: raw}})
	require.Len(t, res.Statements, 1)
	it := res.Statements[0].Income[model.ConceptRevenue]
	assert.Nil(t, it.Value, "undefined must stay nil through rescaling, never 0")
}

func TestDeriveFreeCashFlow_Exact(t *testing.T) {
	raw := rawYTD(2025, 3, 9, nil)
	raw.Cashflow = model.ItemMap{
		model.ConceptOperatingCF: {Name: "OCF", Value: fp(3_670_350_000_000)},
		model.ConceptCapex:       {Name: "CAPEX", Value: fp(1_850_073_000_000)},
	}
	res := Statements([]model.FileParseResult{{File: model.UploadedFile{ID: "f"}, Statement: raw}})
	require.Len(t, res.Statements, 1)
	fcf := res.Statements[0].Value(model.ConceptFreeCashFlow)
	require.NotNil(t, fcf)
	assert.Equal(t, 1_820_277_000_000.0, *fcf)
}

func TestDeriveFreeCashFlow_NegativeCapexReported(t *testing.T) {
	// Some filings report CAPEX as a negative outflow; FCF uses |CAPEX|.
	raw := rawYTD(2025, 3, 9, nil)
	raw.Cashflow = model.ItemMap{
		model.ConceptOperatingCF: {Value: fp(1000)},
		model.ConceptCapex:       {Value: fp(-400)},
	}
	res := Statements([]model.FileParseResult{{File: model.UploadedFile{ID: "f"}, Statement: raw}})
	require.Len(t, res.Statements, 1)
	fcf := res.Statements[0].Value(model.ConceptFreeCashFlow)
	require.NotNil(t, fcf)
	assert.Equal(t, 600.0, *fcf)
}

func TestDeriveFreeCashFlow_MissingComponentStaysUndefined(t *testing.T) {
	raw := rawYTD(2025, 3, 9, nil)
	raw.Cashflow = model.ItemMap{
		model.ConceptOperatingCF: {Value: fp(1000)},
	}
	res := Statements([]model.FileParseResult{{File: model.UploadedFile{ID: "f"}, Statement: raw}})
	require.Len(t, res.Statements, 1)
	assert.Nil(t, res.Statements[0].Value(model.ConceptFreeCashFlow))
}
