package sheets

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/variance"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func label(name string, depth int) string {
	return strings.Repeat("  ", depth) + name
}

// BudgetSheetTitle names the tab a dataset's budget report is written to.
func BudgetSheetTitle(dataset model.DatasetID) string {
	return "Budget " + string(dataset)
}

// VarianceSheetTitle names the tab a comparison is written to.
func VarianceSheetTitle(a, b model.DatasetID) string {
	return "Variance " + string(a) + " vs " + string(b)
}

// BudgetValues lays out a rollup report: one row per hierarchy row with
// twelve months, four quarters and the fiscal year.
func BudgetValues(report *rollup.Report) [][]any {
	header := make([]any, 0, 18)
	header = append(header, "Row")
	for _, m := range model.AllMonths() {
		header = append(header, m.String())
	}
	header = append(header, "Q1", "Q2", "Q3", "Q4", "FY")

	values := make([][]any, 0, len(report.Lines)+2)
	values = append(values,
		[]any{"Budget", string(report.DatasetID)},
		header,
	)

	for _, line := range report.Lines {
		row := make([]any, 0, len(header))
		row = append(row, label(line.Name, line.Depth))
		for _, m := range line.Months {
			row = append(row, money(m))
		}
		for _, q := range line.Quarters {
			row = append(row, money(q))
		}
		row = append(row, money(line.Total))
		values = append(values, row)
	}
	return values
}

// VarianceValues lays out a variance report with the fiscal-year comparison
// first and the monthly deltas after it.
func VarianceValues(report *variance.Report) [][]any {
	header := []any{"Row", string(report.DatasetA), string(report.DatasetB), "Delta", "Delta %", "Tag"}
	for _, m := range model.AllMonths() {
		header = append(header, m.String()+" Δ")
	}

	values := make([][]any, 0, len(report.Rows)+2)
	values = append(values,
		[]any{"Variance", string(report.DatasetA), string(report.DatasetB)},
		header,
	)

	for _, diff := range report.Rows {
		fy := diff.FiscalYear
		pct := fy.DeltaPercent.String()
		if !fy.DeltaPercent.Undefined {
			pct = fy.DeltaPercent.Value.StringFixed(2)
		}
		row := []any{
			label(diff.Name, diff.Depth),
			money(fy.ValueA),
			money(fy.ValueB),
			money(fy.Delta),
			pct,
			string(fy.Tag),
		}
		for _, c := range diff.Cells {
			row = append(row, money(c.Delta))
		}
		values = append(values, row)
	}
	return values
}
