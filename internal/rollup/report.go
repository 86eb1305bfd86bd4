package rollup

import (
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

// Line is one row of a rollup report.
type Line struct {
	Total      decimal.Decimal
	RowID      string
	Name       string
	Kind       model.RowKind
	Months     [model.MonthsPerYear]decimal.Decimal
	Quarters   [4]decimal.Decimal
	Depth      int
	Calculated bool
}

// Report holds every row of the hierarchy for one dataset in display order.
type Report struct {
	DatasetID model.DatasetID
	Lines     []Line
}

// Report computes totals for every row of the hierarchy.
func (c *Calculator) Report(dataset model.DatasetID) (*Report, error) {
	if !c.source.HasDataset(dataset) {
		return nil, common.NewNotFoundError("dataset", string(dataset))
	}

	rows := c.tree.Rows()
	report := &Report{DatasetID: dataset, Lines: make([]Line, 0, len(rows))}
	for _, row := range rows {
		months, err := c.MonthlyTotals(row.ID, dataset)
		if err != nil {
			return nil, err
		}
		line := Line{
			RowID:      row.ID,
			Name:       row.Name,
			Kind:       row.Kind,
			Depth:      row.Depth,
			Calculated: row.IsCalculated,
			Months:     months,
			Total:      sum(months[:]),
		}
		for q := range line.Quarters {
			line.Quarters[q] = sum(months[q*3 : q*3+3])
		}
		report.Lines = append(report.Lines, line)
	}
	return report, nil
}

// Line returns the report line for a row.
func (r *Report) Line(rowID string) (Line, bool) {
	for _, l := range r.Lines {
		if l.RowID == rowID {
			return l, true
		}
	}
	return Line{}, false
}

// Sections returns only the section lines, calculated ones included.
func (r *Report) Sections() []Line {
	var out []Line
	for _, l := range r.Lines {
		if l.Kind == model.RowSection {
			out = append(out, l)
		}
	}
	return out
}
