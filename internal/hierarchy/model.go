// Package hierarchy holds the Section → Category → Subcategory tree and the
// monthly amounts recorded against its leaves for each dataset.
//
// The Model performs no locking. Hosts that share one between goroutines
// must serialize writes, or hand each recompute a Clone.
package hierarchy

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

// AmountSource supplies leaf amounts to the rollup calculator. Absent
// cells are zero. Version must change whenever any amount or row the
// source answers for changes.
type AmountSource interface {
	MonthlyAmount(sub model.SubcategoryID, dataset model.DatasetID, month model.Month) decimal.Decimal
	HasDataset(dataset model.DatasetID) bool
	Version() uint64
}

// Cell addresses one monthly amount of a leaf row within a dataset.
type Cell struct {
	Subcategory model.SubcategoryID
	Month       model.Month
}

// CellValue is an explicit amount stored for a cell.
type CellValue struct {
	Value decimal.Decimal
	Cell
}

type cellKey struct {
	sub     model.SubcategoryID
	dataset model.DatasetID
	month   model.Month
}

// Model is the typed hierarchy plus its period amounts.
type Model struct {
	sections       map[model.SectionID]model.Section
	categories     map[model.CategoryID]model.Category
	subcategories  map[model.SubcategoryID]model.Subcategory
	datasets       map[model.DatasetID]model.Dataset
	rows           map[string]model.RowKind
	catsBySection  map[model.SectionID][]model.CategoryID
	subsByCategory map[model.CategoryID][]model.SubcategoryID
	amounts        map[cellKey]decimal.Decimal
	version        uint64
}

// New creates an empty hierarchy.
func New() *Model {
	return &Model{
		sections:       make(map[model.SectionID]model.Section),
		categories:     make(map[model.CategoryID]model.Category),
		subcategories:  make(map[model.SubcategoryID]model.Subcategory),
		datasets:       make(map[model.DatasetID]model.Dataset),
		rows:           make(map[string]model.RowKind),
		catsBySection:  make(map[model.SectionID][]model.CategoryID),
		subsByCategory: make(map[model.CategoryID][]model.SubcategoryID),
		amounts:        make(map[cellKey]decimal.Decimal),
	}
}

func (m *Model) claimRow(id string, kind model.RowKind) error {
	if existing, ok := m.rows[id]; ok {
		return common.NewValidationError("row id", id, "already used by a "+string(existing))
	}
	m.rows[id] = kind
	return nil
}

// AddSection registers a section. Operands of calculated sections may be
// added later; call Validate once the tree is complete.
func (m *Model) AddSection(s model.Section) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Calculation == "" {
		s.Calculation = model.CalculationNone
	}
	if err := m.claimRow(string(s.ID), model.RowSection); err != nil {
		return err
	}
	s.Operands = slices.Clone(s.Operands)
	m.sections[s.ID] = s
	m.version++
	return nil
}

// AddCategory registers a category under an existing, non-calculated section.
func (m *Model) AddCategory(c model.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	section, ok := m.sections[c.SectionID]
	if !ok {
		return common.NewNotFoundError("section", string(c.SectionID))
	}
	if section.IsCalculated {
		return common.NewValidationError("category", c.ID, "cannot belong to calculated section "+string(c.SectionID))
	}
	if err := m.claimRow(string(c.ID), model.RowCategory); err != nil {
		return err
	}
	m.categories[c.ID] = c
	m.catsBySection[c.SectionID] = append(m.catsBySection[c.SectionID], c.ID)
	m.version++
	return nil
}

// AddSubcategory registers a leaf row under an existing category.
func (m *Model) AddSubcategory(s model.Subcategory) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, ok := m.categories[s.CategoryID]; !ok {
		return common.NewNotFoundError("category", string(s.CategoryID))
	}
	if err := m.claimRow(string(s.ID), model.RowSubcategory); err != nil {
		return err
	}
	m.subcategories[s.ID] = s
	m.subsByCategory[s.CategoryID] = append(m.subsByCategory[s.CategoryID], s.ID)
	m.version++
	return nil
}

// AddDataset registers a dataset. Dataset ids live in their own namespace.
func (m *Model) AddDataset(d model.Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Kind == model.DatasetSandbox {
		return common.NewValidationError("dataset", d.ID, "sandbox overlays are not registered in the hierarchy")
	}
	if _, ok := m.datasets[d.ID]; ok {
		return common.NewValidationError("dataset id", d.ID, "already exists")
	}
	m.datasets[d.ID] = d
	m.version++
	return nil
}

// Validate checks cross-row references: every operand of a calculated
// section must exist and calculations must not form a cycle.
func (m *Model) Validate() error {
	for _, s := range m.Sections() {
		for _, op := range s.Operands {
			if _, ok := m.sections[op]; !ok {
				return common.NewNotFoundError("operand section", string(op))
			}
		}
	}

	const (
		visiting = iota + 1
		done
	)
	state := make(map[model.SectionID]int, len(m.sections))

	var visit func(id model.SectionID) error
	visit = func(id model.SectionID) error {
		switch state[id] {
		case visiting:
			return common.NewValidationError("section", id, "is part of a calculation cycle")
		case done:
			return nil
		}
		state[id] = visiting
		for _, op := range m.sections[id].Operands {
			if err := visit(op); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, s := range m.Sections() {
		if err := visit(s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Section returns the section with the given id.
func (m *Model) Section(id model.SectionID) (model.Section, error) {
	s, ok := m.sections[id]
	if !ok {
		return model.Section{}, common.NewNotFoundError("section", string(id))
	}
	s.Operands = slices.Clone(s.Operands)
	return s, nil
}

// Category returns the category with the given id.
func (m *Model) Category(id model.CategoryID) (model.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return model.Category{}, common.NewNotFoundError("category", string(id))
	}
	return c, nil
}

// Subcategory returns the subcategory with the given id.
func (m *Model) Subcategory(id model.SubcategoryID) (model.Subcategory, error) {
	s, ok := m.subcategories[id]
	if !ok {
		return model.Subcategory{}, common.NewNotFoundError("subcategory", string(id))
	}
	return s, nil
}

// Dataset returns the dataset with the given id.
func (m *Model) Dataset(id model.DatasetID) (model.Dataset, error) {
	d, ok := m.datasets[id]
	if !ok {
		return model.Dataset{}, common.NewNotFoundError("dataset", string(id))
	}
	return d, nil
}

// HasDataset reports whether the dataset is registered.
func (m *Model) HasDataset(id model.DatasetID) bool {
	_, ok := m.datasets[id]
	return ok
}

// Row resolves a row id to its level in the hierarchy.
func (m *Model) Row(id string) (model.RowKind, error) {
	kind, ok := m.rows[id]
	if !ok {
		return "", common.NewNotFoundError("row", id)
	}
	return kind, nil
}

// RowRef describes a single row the way Rows does.
func (m *Model) RowRef(id string) (model.RowRef, error) {
	kind, err := m.Row(id)
	if err != nil {
		return model.RowRef{}, err
	}
	ref := model.RowRef{ID: id, Kind: kind}
	switch kind {
	case model.RowSection:
		s := m.sections[model.SectionID(id)]
		ref.Name, ref.IsCalculated = s.Name, s.IsCalculated
	case model.RowCategory:
		ref.Name, ref.Depth = m.categories[model.CategoryID(id)].Name, 1
	case model.RowSubcategory:
		ref.Name, ref.Depth = m.subcategories[model.SubcategoryID(id)].Name, 2
	}
	return ref, nil
}

// Sections returns all sections sorted by display order.
func (m *Model) Sections() []model.Section {
	out := make([]model.Section, 0, len(m.sections))
	for _, s := range m.sections {
		s.Operands = slices.Clone(s.Operands)
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b model.Section) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Categories returns the categories of a section sorted by display order.
func (m *Model) Categories(section model.SectionID) []model.Category {
	ids := m.catsBySection[section]
	out := make([]model.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.categories[id])
	}
	slices.SortFunc(out, func(a, b model.Category) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Subcategories returns the leaves of a category sorted by display order.
func (m *Model) Subcategories(category model.CategoryID) []model.Subcategory {
	ids := m.subsByCategory[category]
	out := make([]model.Subcategory, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.subcategories[id])
	}
	slices.SortFunc(out, func(a, b model.Subcategory) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Leaves returns every subcategory in display order.
func (m *Model) Leaves() []model.Subcategory {
	var out []model.Subcategory
	for _, s := range m.Sections() {
		for _, c := range m.Categories(s.ID) {
			out = append(out, m.Subcategories(c.ID)...)
		}
	}
	return out
}

// Datasets returns all datasets ordered by fiscal year then id.
func (m *Model) Datasets() []model.Dataset {
	out := make([]model.Dataset, 0, len(m.datasets))
	for _, d := range m.datasets {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b model.Dataset) int {
		return cmp.Or(cmp.Compare(a.FiscalYear, b.FiscalYear), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Rows returns every row of the tree in display order: each section,
// followed by its categories, each followed by its subcategories.
func (m *Model) Rows() []model.RowRef {
	var rows []model.RowRef
	for _, s := range m.Sections() {
		rows = append(rows, model.RowRef{
			ID:           string(s.ID),
			Name:         s.Name,
			Kind:         model.RowSection,
			IsCalculated: s.IsCalculated,
		})
		for _, c := range m.Categories(s.ID) {
			rows = append(rows, model.RowRef{ID: string(c.ID), Name: c.Name, Kind: model.RowCategory, Depth: 1})
			for _, sub := range m.Subcategories(c.ID) {
				rows = append(rows, model.RowRef{ID: string(sub.ID), Name: sub.Name, Kind: model.RowSubcategory, Depth: 2})
			}
		}
	}
	return rows
}

func (m *Model) checkCell(sub model.SubcategoryID, dataset model.DatasetID, month model.Month) error {
	if err := model.ValidateMonth(month); err != nil {
		return err
	}
	if _, ok := m.subcategories[sub]; !ok {
		return common.NewNotFoundError("subcategory", string(sub))
	}
	if _, ok := m.datasets[dataset]; !ok {
		return common.NewNotFoundError("dataset", string(dataset))
	}
	return nil
}

// GetMonthlyAmount returns the amount for a cell, or zero when none was recorded.
func (m *Model) GetMonthlyAmount(sub model.SubcategoryID, dataset model.DatasetID, month model.Month) (decimal.Decimal, error) {
	if err := m.checkCell(sub, dataset, month); err != nil {
		return decimal.Zero, err
	}
	return m.amounts[cellKey{sub, dataset, month}], nil
}

// MonthlyAmount implements AmountSource. Unknown cells read as zero.
func (m *Model) MonthlyAmount(sub model.SubcategoryID, dataset model.DatasetID, month model.Month) decimal.Decimal {
	return m.amounts[cellKey{sub, dataset, month}]
}

// SetMonthlyAmount upserts the amount for a cell.
func (m *Model) SetMonthlyAmount(sub model.SubcategoryID, dataset model.DatasetID, month model.Month, value decimal.Decimal) error {
	if err := m.checkCell(sub, dataset, month); err != nil {
		return err
	}
	m.amounts[cellKey{sub, dataset, month}] = value
	m.version++
	return nil
}

// Version implements AmountSource. It increases on every change to rows,
// datasets or amounts.
func (m *Model) Version() uint64 {
	return m.version
}

// SetMonthlyAmountFloat upserts a float amount, rejecting NaN and infinities.
func (m *Model) SetMonthlyAmountFloat(sub model.SubcategoryID, dataset model.DatasetID, month model.Month, value float64) error {
	d, err := DecimalFromFloat(value)
	if err != nil {
		return err
	}
	return m.SetMonthlyAmount(sub, dataset, month, d)
}

// DecimalFromFloat converts a finite float to a decimal.
func DecimalFromFloat(value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, common.NewValidationError("amount", value, "must be a finite number")
	}
	return decimal.NewFromFloat(value), nil
}

// Load applies a batch of feed records. Every record is checked before any
// is applied, so a rejected batch leaves the model unchanged.
func (m *Model) Load(records []model.AmountRecord) error {
	for i := range records {
		rec := &records[i]
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
		if err := m.checkCell(rec.SubcategoryID, rec.DatasetID, rec.Month); err != nil {
			return fmt.Errorf("record at index %d: %w", i, err)
		}
		if ds := m.datasets[rec.DatasetID]; ds.FiscalYear != rec.FiscalYear {
			return fmt.Errorf("record at index %d: %w", i, common.NewValidationError("fiscal year", rec.FiscalYear,
				"does not match dataset "+string(rec.DatasetID)))
		}
	}

	for _, rec := range records {
		m.amounts[cellKey{rec.SubcategoryID, rec.DatasetID, rec.Month}] = rec.Amount
	}
	if len(records) > 0 {
		m.version++
	}
	return nil
}

// Cells returns every explicit amount of a dataset ordered by leaf id and month.
func (m *Model) Cells(dataset model.DatasetID) []CellValue {
	var out []CellValue
	for key, value := range m.amounts {
		if key.dataset != dataset {
			continue
		}
		out = append(out, CellValue{Cell: Cell{Subcategory: key.sub, Month: key.month}, Value: value})
	}
	slices.SortFunc(out, func(a, b CellValue) int {
		return cmp.Or(cmp.Compare(a.Subcategory, b.Subcategory), cmp.Compare(a.Month, b.Month))
	})
	return out
}

// Records returns the dataset's explicit amounts as feed records.
func (m *Model) Records(dataset model.DatasetID) ([]model.AmountRecord, error) {
	ds, err := m.Dataset(dataset)
	if err != nil {
		return nil, err
	}
	cells := m.Cells(dataset)
	out := make([]model.AmountRecord, 0, len(cells))
	for _, c := range cells {
		out = append(out, model.AmountRecord{
			SubcategoryID: c.Subcategory,
			DatasetID:     dataset,
			FiscalYear:    ds.FiscalYear,
			Month:         c.Month,
			Amount:        c.Value,
		})
	}
	return out, nil
}

// Clone returns a deep copy that shares no mutable state with m.
func (m *Model) Clone() *Model {
	c := New()
	for id, s := range m.sections {
		s.Operands = slices.Clone(s.Operands)
		c.sections[id] = s
	}
	for id, cat := range m.categories {
		c.categories[id] = cat
	}
	for id, sub := range m.subcategories {
		c.subcategories[id] = sub
	}
	for id, d := range m.datasets {
		c.datasets[id] = d
	}
	for id, kind := range m.rows {
		c.rows[id] = kind
	}
	for id, cats := range m.catsBySection {
		c.catsBySection[id] = slices.Clone(cats)
	}
	for id, subs := range m.subsByCategory {
		c.subsByCategory[id] = slices.Clone(subs)
	}
	for key, value := range m.amounts {
		c.amounts[key] = value
	}
	c.version = m.version
	return c
}
