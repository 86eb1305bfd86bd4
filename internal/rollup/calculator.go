// Package rollup computes category, section and fiscal-year totals from the
// leaf amounts of a hierarchy.
package rollup

import (
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

type memoKey struct {
	row     string
	dataset model.DatasetID
	month   model.Month
}

// Calculator derives totals for any row of a hierarchy. Results are
// memoized and dropped whenever the source's version moves.
type Calculator struct {
	tree     *hierarchy.Model
	source   hierarchy.AmountSource
	memo     map[memoKey]decimal.Decimal
	inflight map[model.SectionID]bool
	version  uint64
}

// New creates a calculator reading amounts from the hierarchy itself.
func New(tree *hierarchy.Model) *Calculator {
	return NewWithSource(tree, tree)
}

// NewWithSource creates a calculator over tree's structure that reads leaf
// amounts from src, such as a sandbox overlay.
func NewWithSource(tree *hierarchy.Model, src hierarchy.AmountSource) *Calculator {
	return &Calculator{
		tree:     tree,
		source:   src,
		memo:     make(map[memoKey]decimal.Decimal),
		inflight: make(map[model.SectionID]bool),
		version:  src.Version(),
	}
}

// Tree returns the hierarchy the calculator walks.
func (c *Calculator) Tree() *hierarchy.Model {
	return c.tree
}

// Source returns the amount source the calculator reads leaves from.
func (c *Calculator) Source() hierarchy.AmountSource {
	return c.source
}

// Invalidate drops every memoized total.
func (c *Calculator) Invalidate() {
	clear(c.memo)
}

// sync drops the memo when the source changed since it was filled.
func (c *Calculator) sync() {
	if v := c.source.Version(); v != c.version {
		clear(c.memo)
		c.version = v
	}
}

func (c *Calculator) check(dataset model.DatasetID, month model.Month) error {
	c.sync()
	if err := model.ValidateMonth(month); err != nil {
		return err
	}
	if !c.source.HasDataset(dataset) {
		return common.NewNotFoundError("dataset", string(dataset))
	}
	return nil
}

// SubcategoryTotal returns a leaf's amount for the month.
func (c *Calculator) SubcategoryTotal(sub model.SubcategoryID, dataset model.DatasetID, month model.Month) (decimal.Decimal, error) {
	if err := c.check(dataset, month); err != nil {
		return decimal.Zero, err
	}
	if _, err := c.tree.Subcategory(sub); err != nil {
		return decimal.Zero, err
	}
	return c.source.MonthlyAmount(sub, dataset, month), nil
}

// CategoryTotal returns the sum of a category's subcategories for the month.
func (c *Calculator) CategoryTotal(cat model.CategoryID, dataset model.DatasetID, month model.Month) (decimal.Decimal, error) {
	if err := c.check(dataset, month); err != nil {
		return decimal.Zero, err
	}
	if _, err := c.tree.Category(cat); err != nil {
		return decimal.Zero, err
	}
	return c.categoryTotal(cat, dataset, month), nil
}

// SectionTotal returns the sum of a section's categories for the month. A
// calculated section is its first operand minus the rest.
func (c *Calculator) SectionTotal(sec model.SectionID, dataset model.DatasetID, month model.Month) (decimal.Decimal, error) {
	if err := c.check(dataset, month); err != nil {
		return decimal.Zero, err
	}
	if _, err := c.tree.Section(sec); err != nil {
		return decimal.Zero, err
	}
	return c.sectionTotal(sec, dataset, month)
}

// MonthlyTotal returns the month's total for a row of any level.
func (c *Calculator) MonthlyTotal(row string, dataset model.DatasetID, month model.Month) (decimal.Decimal, error) {
	if err := c.check(dataset, month); err != nil {
		return decimal.Zero, err
	}
	kind, err := c.tree.Row(row)
	if err != nil {
		return decimal.Zero, err
	}
	return c.total(row, kind, dataset, month)
}

// MonthlyTotals returns a row's twelve monthly totals.
func (c *Calculator) MonthlyTotals(row string, dataset model.DatasetID) ([model.MonthsPerYear]decimal.Decimal, error) {
	var out [model.MonthsPerYear]decimal.Decimal
	for _, m := range model.AllMonths() {
		v, err := c.MonthlyTotal(row, dataset, m)
		if err != nil {
			return out, err
		}
		out[m.Index()] = v
	}
	return out, nil
}

// FiscalYearTotal returns the sum of a row's twelve monthly totals.
func (c *Calculator) FiscalYearTotal(row string, dataset model.DatasetID) (decimal.Decimal, error) {
	months, err := c.MonthlyTotals(row, dataset)
	if err != nil {
		return decimal.Zero, err
	}
	return sum(months[:]), nil
}

// QuarterTotal returns the sum of a row's three monthly totals in quarter q.
func (c *Calculator) QuarterTotal(row string, dataset model.DatasetID, q int) (decimal.Decimal, error) {
	if err := model.ValidateQuarter(q); err != nil {
		return decimal.Zero, err
	}
	months, err := c.MonthlyTotals(row, dataset)
	if err != nil {
		return decimal.Zero, err
	}
	start := (q - 1) * 3
	return sum(months[start : start+3]), nil
}

func (c *Calculator) total(row string, kind model.RowKind, dataset model.DatasetID, month model.Month) (decimal.Decimal, error) {
	switch kind {
	case model.RowSubcategory:
		return c.source.MonthlyAmount(model.SubcategoryID(row), dataset, month), nil
	case model.RowCategory:
		return c.categoryTotal(model.CategoryID(row), dataset, month), nil
	case model.RowSection:
		return c.sectionTotal(model.SectionID(row), dataset, month)
	default:
		return decimal.Zero, common.NewValidationError("row kind", kind, "is not recognized")
	}
}

func (c *Calculator) categoryTotal(cat model.CategoryID, dataset model.DatasetID, month model.Month) decimal.Decimal {
	key := memoKey{row: string(cat), dataset: dataset, month: month}
	if v, ok := c.memo[key]; ok {
		return v
	}

	total := decimal.Zero
	for _, sub := range c.tree.Subcategories(cat) {
		total = total.Add(c.source.MonthlyAmount(sub.ID, dataset, month))
	}
	c.memo[key] = total
	return total
}

func (c *Calculator) sectionTotal(sec model.SectionID, dataset model.DatasetID, month model.Month) (decimal.Decimal, error) {
	key := memoKey{row: string(sec), dataset: dataset, month: month}
	if v, ok := c.memo[key]; ok {
		return v, nil
	}

	section, err := c.tree.Section(sec)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	if !section.IsCalculated {
		for _, cat := range c.tree.Categories(sec) {
			total = total.Add(c.categoryTotal(cat.ID, dataset, month))
		}
		c.memo[key] = total
		return total, nil
	}

	if c.inflight[sec] {
		return decimal.Zero, common.NewValidationError("section", sec, "is part of a calculation cycle")
	}
	c.inflight[sec] = true
	defer delete(c.inflight, sec)

	for i, op := range section.Operands {
		v, err := c.sectionTotal(op, dataset, month)
		if err != nil {
			return decimal.Zero, err
		}
		if i == 0 {
			total = v
			continue
		}
		total = total.Sub(v)
	}
	c.memo[key] = total
	return total, nil
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
