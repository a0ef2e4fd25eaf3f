// Package export writes an analysis bundle to an XLSX workbook for
// spreadsheet review.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/compare"
	"github.com/dartlens/dartlens/internal/model"
)

// Workbook writes the bundle's key metrics, checkpoints and warnings to an
// XLSX file at path.
func Workbook(bundle *model.AnalysisBundle, company, path string) error {
	if bundle == nil || len(bundle.Statements) == 0 {
		return eris.New("export: bundle has no statements")
	}

	f := xlsx.NewFile()
	if err := metricsSheet(f, bundle); err != nil {
		return err
	}
	if err := ratiosSheet(f, bundle); err != nil {
		return err
	}
	if err := checkpointsSheet(f, bundle); err != nil {
		return err
	}
	if err := warningsSheet(f, bundle); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	zap.L().Info("export: workbook written",
		zap.String("company", company),
		zap.String("path", path),
	)
	return nil
}

var metricsHeader = []string{"기간", "지표", "값", "비교기준", "비교값", "증감", "증감률(%)", "추세", "사유코드"}

func metricsSheet(f *xlsx.File, bundle *model.AnalysisBundle) error {
	sheet, err := f.AddSheet("주요지표")
	if err != nil {
		return eris.Wrap(err, "export: add metrics sheet")
	}
	addStringRow(sheet, metricsHeader...)

	for _, st := range bundle.Statements {
		for _, spec := range model.KeyMetrics {
			row := sheet.AddRow()
			row.AddCell().SetString(st.Period.Label())
			row.AddCell().SetString(spec.Label)
			addFloatCell(row, st.Value(spec.Concept))

			cmp, ok := st.KeyMetricsCompare[spec.Concept]
			if !ok {
				padCells(row, 6)
				continue
			}
			row.AddCell().SetString(string(cmp.CompareBasis))
			addFloatCell(row, cmp.PrevValue)
			addFloatCell(row, cmp.Delta)
			addFloatCell(row, cmp.DeltaPct)
			row.AddCell().SetString(string(cmp.Trend))
			row.AddCell().SetString(string(cmp.ReasonCode))
		}
	}
	return nil
}

// ratiosSheet derives margin and leverage ratios per statement. A ratio
// whose inputs are missing (or whose denominator is too small) stays empty.
func ratiosSheet(f *xlsx.File, bundle *model.AnalysisBundle) error {
	sheet, err := f.AddSheet("재무비율")
	if err != nil {
		return eris.Wrap(err, "export: add ratios sheet")
	}
	addStringRow(sheet, "기간", "영업이익률(%)", "순이익률(%)", "부채비율(%)")

	for _, st := range bundle.Statements {
		row := sheet.AddRow()
		row.AddCell().SetString(st.Period.Label())
		addFloatCell(row, compare.OperatingMargin(st))
		addFloatCell(row, compare.NetMargin(st))
		addFloatCell(row, compare.DebtRatio(st))
	}
	return nil
}

func checkpointsSheet(f *xlsx.File, bundle *model.AnalysisBundle) error {
	sheet, err := f.AddSheet("체크포인트")
	if err != nil {
		return eris.Wrap(err, "export: add checkpoints sheet")
	}
	addStringRow(sheet, "종류", "제목", "상세", "근거 수")

	for _, step := range bundle.StepOutputs {
		for _, cp := range step.Checkpoints {
			row := sheet.AddRow()
			row.AddCell().SetString(string(cp.Kind))
			row.AddCell().SetString(cp.Title)
			row.AddCell().SetString(cp.Detail)
			row.AddCell().SetInt(len(cp.Evidence))
		}
	}
	return nil
}

func warningsSheet(f *xlsx.File, bundle *model.AnalysisBundle) error {
	sheet, err := f.AddSheet("경고")
	if err != nil {
		return eris.Wrap(err, "export: add warnings sheet")
	}
	addStringRow(sheet, "코드", "상세", "파일")

	for _, w := range bundle.Warnings {
		row := sheet.AddRow()
		row.AddCell().SetString(w.Code)
		row.AddCell().SetString(w.Detail)
		row.AddCell().SetString(w.FileID)
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// addFloatCell leaves the cell empty for a nil value; absence never renders
// as 0.
func addFloatCell(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

func padCells(row *xlsx.Row, n int) {
	for i := 0; i < n; i++ {
		row.AddCell()
	}
}
