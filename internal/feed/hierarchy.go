// Package feed parses the files used to populate a plan: a YAML hierarchy
// definition and a CSV feed of monthly amounts.
package feed

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
)

// Definition is a hierarchy file.
//
//	fiscal_year: 2025
//	sections:
//	  - id: revenue
//	    name: Revenue
//	    categories:
//	      - id: sales
//	        name: Sales
//	        subcategories:
//	          - {id: product_sales, name: Product Sales}
//	  - id: gross_profit
//	    name: Gross Profit
//	    calculation: gross_profit
//	    operands: [revenue, cogs]
//	datasets:
//	  - {id: budget-2025, name: Budget 2025, kind: budget}
type Definition struct {
	Sections   []SectionDef `yaml:"sections"`
	Datasets   []DatasetDef `yaml:"datasets"`
	FiscalYear int          `yaml:"fiscal_year"`
}

// SectionDef declares a section and its categories.
type SectionDef struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Calculation string        `yaml:"calculation,omitempty"`
	Operands    []string      `yaml:"operands,omitempty"`
	Categories  []CategoryDef `yaml:"categories,omitempty"`
	Order       int           `yaml:"order,omitempty"`
}

// CategoryDef declares a category and its leaves.
type CategoryDef struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Subcategories []RowDef `yaml:"subcategories,omitempty"`
	Order         int      `yaml:"order,omitempty"`
}

// RowDef declares a subcategory.
type RowDef struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Order int    `yaml:"order,omitempty"`
}

// DatasetDef declares a dataset. A zero fiscal year inherits the file's.
type DatasetDef struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	FiscalYear int    `yaml:"fiscal_year,omitempty"`
}

// ParseHierarchyYAML decodes a hierarchy definition. Unknown keys are rejected.
func ParseHierarchyYAML(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, common.NewValidationError("hierarchy file", nil, "is empty")
		}
		return nil, fmt.Errorf("failed to parse hierarchy: %w", err)
	}
	if len(def.Sections) == 0 {
		return nil, common.NewValidationError("hierarchy file", nil, "declares no sections")
	}
	return &def, nil
}

// orderOf returns the explicit order, or the 1-based position when none was given.
func orderOf(explicit, index int) int {
	if explicit != 0 {
		return explicit
	}
	return index + 1
}

// SectionRecords returns the declared sections as model records.
func (d *Definition) SectionRecords() []model.Section {
	out := make([]model.Section, 0, len(d.Sections))
	for i, s := range d.Sections {
		sec := model.Section{
			ID:    model.SectionID(s.ID),
			Name:  s.Name,
			Order: orderOf(s.Order, i),
		}
		if s.Calculation != "" && s.Calculation != string(model.CalculationNone) {
			sec.IsCalculated = true
			sec.Calculation = model.CalculationKind(s.Calculation)
		}
		for _, op := range s.Operands {
			sec.Operands = append(sec.Operands, model.SectionID(op))
		}
		out = append(out, sec)
	}
	return out
}

// Apply adds every declared row and dataset to tree, then validates it.
func (d *Definition) Apply(tree *hierarchy.Model) error {
	for _, sec := range d.SectionRecords() {
		if err := tree.AddSection(sec); err != nil {
			return err
		}
	}
	for _, s := range d.Sections {
		for i, c := range s.Categories {
			cat := model.Category{
				ID:        model.CategoryID(c.ID),
				SectionID: model.SectionID(s.ID),
				Name:      c.Name,
				Order:     orderOf(c.Order, i),
			}
			if err := tree.AddCategory(cat); err != nil {
				return err
			}
			for j, sub := range c.Subcategories {
				leaf := model.Subcategory{
					ID:         model.SubcategoryID(sub.ID),
					CategoryID: cat.ID,
					Name:       sub.Name,
					Order:      orderOf(sub.Order, j),
				}
				if err := tree.AddSubcategory(leaf); err != nil {
					return err
				}
			}
		}
	}
	for _, ds := range d.Datasets {
		year := ds.FiscalYear
		if year == 0 {
			year = d.FiscalYear
		}
		if err := tree.AddDataset(model.Dataset{
			ID:         model.DatasetID(ds.ID),
			Name:       ds.Name,
			Kind:       model.DatasetKind(ds.Kind),
			FiscalYear: year,
		}); err != nil {
			return err
		}
	}
	return tree.Validate()
}

// Build returns a new validated tree holding the definition.
func (d *Definition) Build() (*hierarchy.Model, error) {
	tree := hierarchy.New()
	if err := d.Apply(tree); err != nil {
		return nil, err
	}
	return tree, nil
}
