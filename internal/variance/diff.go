// Package variance compares datasets cell by cell and by rollup, and
// provides the Sandbox overlay for what-if edits.
package variance

import (
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent is a percentage change. Undefined is set when the change is from
// zero to a non-zero value.
type Percent struct {
	Value     decimal.Decimal
	Undefined bool
}

// SentinelUndefinedPercent is the percent change from zero to a non-zero value.
var SentinelUndefinedPercent = Percent{Undefined: true}

func (p Percent) String() string {
	if p.Undefined {
		return "n/a"
	}
	return p.Value.String()
}

// PercentChange returns (b - a) / a * 100. It is zero when both values are
// zero and SentinelUndefinedPercent when only a is zero.
func PercentChange(a, b decimal.Decimal) Percent {
	if a.IsZero() {
		if b.IsZero() {
			return Percent{Value: decimal.Zero}
		}
		return SentinelUndefinedPercent
	}
	return Percent{Value: b.Sub(a).Div(a).Mul(hundred)}
}

// Tag is display metadata derived from the sign of a delta.
type Tag string

const (
	TagFavorable   Tag = "favorable"
	TagUnfavorable Tag = "unfavorable"
	TagNeutral     Tag = "neutral"
)

// TagFor classifies a delta by its sign.
func TagFor(delta decimal.Decimal) Tag {
	switch delta.Sign() {
	case 1:
		return TagFavorable
	case -1:
		return TagUnfavorable
	default:
		return TagNeutral
	}
}

// CellDiff compares one row's value in two datasets. Month is zero for a
// fiscal-year comparison.
type CellDiff struct {
	ValueA       decimal.Decimal
	ValueB       decimal.Decimal
	Delta        decimal.Decimal
	DeltaPercent Percent
	RowID        string
	Tag          Tag
	Month        model.Month
}

func newCellDiff(row string, month model.Month, a, b decimal.Decimal) CellDiff {
	delta := b.Sub(a)
	return CellDiff{
		RowID:        row,
		Month:        month,
		ValueA:       a,
		ValueB:       b,
		Delta:        delta,
		DeltaPercent: PercentChange(a, b),
		Tag:          TagFor(delta),
	}
}

// RowDiff holds a row's twelve monthly diffs and its fiscal-year diff.
type RowDiff struct {
	RowID      string
	Name       string
	Kind       model.RowKind
	Cells      [model.MonthsPerYear]CellDiff
	FiscalYear CellDiff
	Depth      int
}

// Changed reports whether any month of the row differs.
func (r *RowDiff) Changed() bool {
	for _, c := range r.Cells {
		if !c.Delta.IsZero() {
			return true
		}
	}
	return false
}

// Report is a row-by-row comparison of two datasets in display order.
type Report struct {
	DatasetA model.DatasetID
	DatasetB model.DatasetID
	Rows     []RowDiff
}

// Row returns the diff for a row.
func (r *Report) Row(rowID string) (RowDiff, bool) {
	for _, d := range r.Rows {
		if d.RowID == rowID {
			return d, true
		}
	}
	return RowDiff{}, false
}

// Engine diffs datasets using a rollup calculator.
type Engine struct {
	calc *rollup.Calculator
}

// NewEngine creates an engine over the calculator's hierarchy and source.
func NewEngine(calc *rollup.Calculator) *Engine {
	return &Engine{calc: calc}
}

// DiffCell compares a row's monthly total in dataset a against dataset b.
func (e *Engine) DiffCell(row string, a, b model.DatasetID, month model.Month) (CellDiff, error) {
	va, err := e.calc.MonthlyTotal(row, a, month)
	if err != nil {
		return CellDiff{}, err
	}
	vb, err := e.calc.MonthlyTotal(row, b, month)
	if err != nil {
		return CellDiff{}, err
	}
	return newCellDiff(row, month, va, vb), nil
}

// DiffRow compares every month of a row plus its fiscal-year total.
func (e *Engine) DiffRow(row string, a, b model.DatasetID) (RowDiff, error) {
	ref, err := e.calc.Tree().RowRef(row)
	if err != nil {
		return RowDiff{}, err
	}
	diff := RowDiff{RowID: row, Name: ref.Name, Kind: ref.Kind, Depth: ref.Depth}
	ta, tb := decimal.Zero, decimal.Zero
	for _, m := range model.AllMonths() {
		cell, err := e.DiffCell(row, a, b, m)
		if err != nil {
			return RowDiff{}, err
		}
		diff.Cells[m.Index()] = cell
		ta = ta.Add(cell.ValueA)
		tb = tb.Add(cell.ValueB)
	}
	diff.FiscalYear = newCellDiff(row, 0, ta, tb)
	return diff, nil
}

// DiffReport compares every row of the hierarchy.
func (e *Engine) DiffReport(a, b model.DatasetID) (*Report, error) {
	for _, ds := range []model.DatasetID{a, b} {
		if !e.calc.Source().HasDataset(ds) {
			return nil, common.NewNotFoundError("dataset", string(ds))
		}
	}

	rows := e.calc.Tree().Rows()
	report := &Report{DatasetA: a, DatasetB: b, Rows: make([]RowDiff, 0, len(rows))}
	for _, row := range rows {
		diff, err := e.DiffRow(row.ID, a, b)
		if err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, diff)
	}
	return report, nil
}
