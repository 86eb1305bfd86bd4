// Package model defines the typed records shared by the budget engine,
// its persistence adapter and its presentation layers.
package model

import (
	"strings"

	"github.com/Veraticus/runway/internal/common"
)

// SectionID identifies a top-level section such as Revenue or COGS.
type SectionID string

// CategoryID identifies a category within a section.
type CategoryID string

// SubcategoryID identifies a leaf row that owns monthly amounts.
type SubcategoryID string

// RowKind tells which level of the hierarchy a row id belongs to.
type RowKind string

const (
	// RowSection is a top-level section row.
	RowSection RowKind = "section"
	// RowCategory is a mid-level category row.
	RowCategory RowKind = "category"
	// RowSubcategory is a leaf row.
	RowSubcategory RowKind = "subcategory"
)

// CalculationKind describes how a calculated section derives its value.
type CalculationKind string

const (
	// CalculationNone marks an ordinary section that sums its categories.
	CalculationNone CalculationKind = "none"
	// CalculationGrossProfit derives revenue minus cost of goods sold.
	CalculationGrossProfit CalculationKind = "gross_profit"
	// CalculationNetProfit derives gross profit minus expenses.
	CalculationNetProfit CalculationKind = "net_profit"
)

// Valid reports whether k is a known calculation kind.
func (k CalculationKind) Valid() bool {
	switch k {
	case CalculationNone, CalculationGrossProfit, CalculationNetProfit:
		return true
	}
	return false
}

// Section is a top-level grouping of categories.
//
// A calculated section owns no categories. Its value is the total of the
// first operand section minus the totals of every remaining operand.
type Section struct {
	ID           SectionID
	Name         string
	Calculation  CalculationKind
	Operands     []SectionID
	Order        int
	IsCalculated bool
}

// Kind returns the section's calculation kind, treating the zero value as none.
func (s *Section) Kind() CalculationKind {
	if s.Calculation == "" {
		return CalculationNone
	}
	return s.Calculation
}

// Validate checks the section's own fields. Operand existence is checked
// by the hierarchy once every section is known.
func (s *Section) Validate() error {
	if strings.TrimSpace(string(s.ID)) == "" {
		return common.NewValidationError("section id", nil, "is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return common.NewValidationError("section name", s.ID, "is required")
	}

	kind := s.Kind()
	if !kind.Valid() {
		return common.NewValidationError("calculation kind", kind, "is not recognized")
	}

	if !s.IsCalculated {
		if kind != CalculationNone {
			return common.NewValidationError("section", s.ID, "has a calculation kind but is not marked calculated")
		}
		if len(s.Operands) > 0 {
			return common.NewValidationError("section", s.ID, "only calculated sections may declare operands")
		}
		return nil
	}

	if kind == CalculationNone {
		return common.NewValidationError("section", s.ID, "calculated sections need a calculation kind")
	}
	if len(s.Operands) < 2 {
		return common.NewValidationError("section", s.ID, "calculated sections need at least two operand sections")
	}

	seen := make(map[SectionID]bool, len(s.Operands))
	for _, op := range s.Operands {
		if op == s.ID {
			return common.NewValidationError("section", s.ID, "cannot use itself as an operand")
		}
		if seen[op] {
			return common.NewValidationError("section", s.ID, "lists operand "+string(op)+" twice")
		}
		seen[op] = true
	}

	return nil
}

// Category is a mid-level grouping under exactly one section.
type Category struct {
	ID        CategoryID
	SectionID SectionID
	Name      string
	Order     int
}

// Validate checks the category's own fields.
func (c *Category) Validate() error {
	if strings.TrimSpace(string(c.ID)) == "" {
		return common.NewValidationError("category id", nil, "is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return common.NewValidationError("category name", c.ID, "is required")
	}
	if strings.TrimSpace(string(c.SectionID)) == "" {
		return common.NewValidationError("category section", c.ID, "is required")
	}
	return nil
}

// Subcategory is a leaf grouping under exactly one category.
type Subcategory struct {
	ID         SubcategoryID
	CategoryID CategoryID
	Name       string
	Order      int
}

// Validate checks the subcategory's own fields.
func (s *Subcategory) Validate() error {
	if strings.TrimSpace(string(s.ID)) == "" {
		return common.NewValidationError("subcategory id", nil, "is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return common.NewValidationError("subcategory name", s.ID, "is required")
	}
	if strings.TrimSpace(string(s.CategoryID)) == "" {
		return common.NewValidationError("subcategory category", s.ID, "is required")
	}
	return nil
}

// RowRef describes one row of the hierarchy in display order.
type RowRef struct {
	ID           string
	Name         string
	Kind         RowKind
	Depth        int
	IsCalculated bool
}
