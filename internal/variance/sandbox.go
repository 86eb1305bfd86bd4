package variance

import (
	"cmp"
	"slices"

	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CellChange is one leaf cell whose sandbox value differs from the original.
type CellChange struct {
	Original    decimal.Decimal
	Value       decimal.Decimal
	Subcategory model.SubcategoryID
	Month       model.Month
}

// Sandbox is a what-if overlay over one dataset. The original values are
// captured when the sandbox is created and are never modified; edits live
// in a separate working set that holds only cells that differ.
//
// A Sandbox is not safe for concurrent use.
type Sandbox struct {
	base     *hierarchy.Model
	original map[hierarchy.Cell]decimal.Decimal
	working  map[hierarchy.Cell]decimal.Decimal
	calc     *rollup.Calculator
	engine   *Engine
	baseID   model.DatasetID
	id       model.DatasetID
	edits    uint64
}

// NewSandbox snapshots the dataset's current values into a new overlay.
func NewSandbox(base *hierarchy.Model, dataset model.DatasetID) (*Sandbox, error) {
	if _, err := base.Dataset(dataset); err != nil {
		return nil, err
	}

	cells := base.Cells(dataset)
	s := &Sandbox{
		base:     base,
		baseID:   dataset,
		id:       model.DatasetID("sandbox-" + uuid.NewString()),
		original: make(map[hierarchy.Cell]decimal.Decimal, len(cells)),
		working:  make(map[hierarchy.Cell]decimal.Decimal),
	}
	for _, c := range cells {
		s.original[c.Cell] = c.Value
	}
	s.calc = rollup.NewWithSource(base, s)
	s.engine = NewEngine(s.calc)
	return s, nil
}

// ID returns the generated dataset id the overlay answers to.
func (s *Sandbox) ID() model.DatasetID {
	return s.id
}

// BaseID returns the dataset the overlay was created from.
func (s *Sandbox) BaseID() model.DatasetID {
	return s.baseID
}

// Calculator returns a rollup calculator that sees the sandbox values under ID().
func (s *Sandbox) Calculator() *rollup.Calculator {
	return s.calc
}

// MonthlyAmount implements hierarchy.AmountSource. The base dataset id
// reads the original snapshot; other datasets are read from the base model.
func (s *Sandbox) MonthlyAmount(sub model.SubcategoryID, dataset model.DatasetID, month model.Month) decimal.Decimal {
	cell := hierarchy.Cell{Subcategory: sub, Month: month}
	switch dataset {
	case s.id:
		if v, ok := s.working[cell]; ok {
			return v
		}
		return s.original[cell]
	case s.baseID:
		return s.original[cell]
	default:
		return s.base.MonthlyAmount(sub, dataset, month)
	}
}

// HasDataset implements hierarchy.AmountSource.
func (s *Sandbox) HasDataset(dataset model.DatasetID) bool {
	return dataset == s.id || s.base.HasDataset(dataset)
}

// Version implements hierarchy.AmountSource. It moves with every sandbox
// edit and with every change to the base model.
func (s *Sandbox) Version() uint64 {
	return s.edits + s.base.Version()
}

func (s *Sandbox) cell(sub model.SubcategoryID, month model.Month) (hierarchy.Cell, error) {
	if err := model.ValidateMonth(month); err != nil {
		return hierarchy.Cell{}, err
	}
	if _, err := s.base.Subcategory(sub); err != nil {
		return hierarchy.Cell{}, err
	}
	return hierarchy.Cell{Subcategory: sub, Month: month}, nil
}

// Set records a what-if value for a leaf cell. Setting a cell back to its
// original value removes the edit.
func (s *Sandbox) Set(sub model.SubcategoryID, month model.Month, value decimal.Decimal) error {
	cell, err := s.cell(sub, month)
	if err != nil {
		return err
	}
	if value.Equal(s.original[cell]) {
		delete(s.working, cell)
	} else {
		s.working[cell] = value
	}
	s.edits++
	return nil
}

// SetFloat is Set for a float value; NaN and infinities are rejected.
func (s *Sandbox) SetFloat(sub model.SubcategoryID, month model.Month, value float64) error {
	d, err := hierarchy.DecimalFromFloat(value)
	if err != nil {
		return err
	}
	return s.Set(sub, month, d)
}

// Get returns the sandbox value of a leaf cell.
func (s *Sandbox) Get(sub model.SubcategoryID, month model.Month) (decimal.Decimal, error) {
	if _, err := s.cell(sub, month); err != nil {
		return decimal.Zero, err
	}
	return s.MonthlyAmount(sub, s.id, month), nil
}

// Original returns the value a leaf cell had when the sandbox was created.
func (s *Sandbox) Original(sub model.SubcategoryID, month model.Month) (decimal.Decimal, error) {
	cell, err := s.cell(sub, month)
	if err != nil {
		return decimal.Zero, err
	}
	return s.original[cell], nil
}

// HasChanges reports whether any leaf cell differs from the original.
func (s *Sandbox) HasChanges() bool {
	return len(s.working) > 0
}

// Changes returns every edited cell ordered by subcategory and month.
func (s *Sandbox) Changes() []CellChange {
	out := make([]CellChange, 0, len(s.working))
	for cell, v := range s.working {
		out = append(out, CellChange{
			Subcategory: cell.Subcategory,
			Month:       cell.Month,
			Original:    s.original[cell],
			Value:       v,
		})
	}
	slices.SortFunc(out, func(a, b CellChange) int {
		return cmp.Or(cmp.Compare(a.Subcategory, b.Subcategory), cmp.Compare(a.Month, b.Month))
	})
	return out
}

// Reset drops every edit. It touches only edited cells.
func (s *Sandbox) Reset() {
	clear(s.working)
	s.edits++
}

// Discard drops the edit of a single cell.
func (s *Sandbox) Discard(sub model.SubcategoryID, month model.Month) error {
	cell, err := s.cell(sub, month)
	if err != nil {
		return err
	}
	delete(s.working, cell)
	s.edits++
	return nil
}

// ChangeRecords returns the edits as feed records against the base dataset,
// ready for the host to persist.
func (s *Sandbox) ChangeRecords() ([]model.AmountRecord, error) {
	ds, err := s.base.Dataset(s.baseID)
	if err != nil {
		return nil, err
	}
	changes := s.Changes()
	out := make([]model.AmountRecord, 0, len(changes))
	for _, c := range changes {
		out = append(out, model.AmountRecord{
			SubcategoryID: c.Subcategory,
			DatasetID:     s.baseID,
			FiscalYear:    ds.FiscalYear,
			Month:         c.Month,
			Amount:        c.Value,
		})
	}
	return out, nil
}

// DiffCell compares one month of a row, original against sandbox.
func (s *Sandbox) DiffCell(row string, month model.Month) (CellDiff, error) {
	return s.engine.DiffCell(row, s.baseID, s.id, month)
}

// Diff compares a row, original against sandbox.
func (s *Sandbox) Diff(row string) (RowDiff, error) {
	return s.engine.DiffRow(row, s.baseID, s.id)
}

// Report compares every row, original against sandbox.
func (s *Sandbox) Report() (*Report, error) {
	return s.engine.DiffReport(s.baseID, s.id)
}
