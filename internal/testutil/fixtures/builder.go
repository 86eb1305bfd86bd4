// Package fixtures builds hierarchy models and cap tables for tests.
//
// Example usage:
//
//	tree := fixtures.NewBuilder(t).
//		WithStandardPL().
//		WithScenarioAmounts().
//		MustBuild()
package fixtures

import (
	"fmt"
	"testing"

	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

// Builder provides a fluent interface for constructing a test hierarchy.
type Builder interface {
	// WithStandardPL adds the Revenue / COGS / Gross Profit / Expenses / Net Profit tree.
	WithStandardPL() Builder

	// WithDataset registers a dataset for FiscalYear.
	WithDataset(id model.DatasetID, kind model.DatasetKind) Builder

	// WithAmount records one monthly amount. Amounts are parsed as decimals.
	WithAmount(sub model.SubcategoryID, dataset model.DatasetID, month model.Month, amount string) Builder

	// WithScenarioAmounts adds the month 1 Budget and Forecast amounts used across tests.
	WithScenarioAmounts() Builder

	// Build creates the model, validating it.
	Build() (*hierarchy.Model, error)

	// MustBuild is Build that fails the test on error.
	MustBuild() *hierarchy.Model
}

// Standard P&L rows.
const (
	Revenue     model.SectionID = "revenue"
	COGS        model.SectionID = "cogs"
	GrossProfit model.SectionID = "gross_profit"
	Expenses    model.SectionID = "expenses"
	NetProfit   model.SectionID = "net_profit"

	Sales     model.CategoryID = "sales"
	Services  model.CategoryID = "services"
	Materials model.CategoryID = "materials"
	Payroll   model.CategoryID = "payroll"

	ProductSales model.SubcategoryID = "product_sales"
	OnlineSales  model.SubcategoryID = "online_sales"
	Consulting   model.SubcategoryID = "consulting"
	RawMaterials model.SubcategoryID = "raw_materials"
	Salaries     model.SubcategoryID = "salaries"
)

// Datasets used by the standard fixture.
const (
	Budget     model.DatasetID = "budget-2025"
	Forecast   model.DatasetID = "forecast-2025"
	FiscalYear                 = 2025
)

type amount struct {
	value   string
	sub     model.SubcategoryID
	dataset model.DatasetID
	month   model.Month
}

type planBuilder struct {
	t             testing.TB
	sections      []model.Section
	categories    []model.Category
	subcategories []model.Subcategory
	datasets      []model.Dataset
	amounts       []amount
	standard      bool
}

// NewBuilder creates a new hierarchy builder for the given test.
func NewBuilder(t testing.TB) Builder {
	t.Helper()
	return &planBuilder{t: t}
}

func (b *planBuilder) WithStandardPL() Builder {
	if b.standard {
		return b
	}
	b.standard = true

	b.sections = append(b.sections,
		model.Section{ID: Revenue, Name: "Revenue", Order: 1},
		model.Section{ID: COGS, Name: "Cost of Goods Sold", Order: 2},
		model.Section{
			ID: GrossProfit, Name: "Gross Profit", Order: 3, IsCalculated: true,
			Calculation: model.CalculationGrossProfit, Operands: []model.SectionID{Revenue, COGS},
		},
		model.Section{ID: Expenses, Name: "Operating Expenses", Order: 4},
		model.Section{
			ID: NetProfit, Name: "Net Profit", Order: 5, IsCalculated: true,
			Calculation: model.CalculationNetProfit, Operands: []model.SectionID{GrossProfit, Expenses},
		},
	)
	b.categories = append(b.categories,
		model.Category{ID: Sales, SectionID: Revenue, Name: "Sales", Order: 1},
		model.Category{ID: Services, SectionID: Revenue, Name: "Services", Order: 2},
		model.Category{ID: Materials, SectionID: COGS, Name: "Materials", Order: 1},
		model.Category{ID: Payroll, SectionID: Expenses, Name: "Payroll", Order: 1},
	)
	b.subcategories = append(b.subcategories,
		model.Subcategory{ID: ProductSales, CategoryID: Sales, Name: "Product Sales", Order: 1},
		model.Subcategory{ID: OnlineSales, CategoryID: Sales, Name: "Online Sales", Order: 2},
		model.Subcategory{ID: Consulting, CategoryID: Services, Name: "Consulting", Order: 1},
		model.Subcategory{ID: RawMaterials, CategoryID: Materials, Name: "Raw Materials", Order: 1},
		model.Subcategory{ID: Salaries, CategoryID: Payroll, Name: "Salaries", Order: 1},
	)
	return b
}

func (b *planBuilder) WithDataset(id model.DatasetID, kind model.DatasetKind) Builder {
	for _, d := range b.datasets {
		if d.ID == id {
			return b
		}
	}
	b.datasets = append(b.datasets, model.Dataset{ID: id, Name: string(id), Kind: kind, FiscalYear: FiscalYear})
	return b
}

func (b *planBuilder) WithAmount(sub model.SubcategoryID, dataset model.DatasetID, month model.Month, value string) Builder {
	b.amounts = append(b.amounts, amount{sub: sub, dataset: dataset, month: month, value: value})
	return b
}

// WithScenarioAmounts records, for month 1:
//
//	Budget:   product 100, online 50, consulting 80, raw materials 60, salaries 40
//	Forecast: product 120, online 50, consulting 70, raw materials 65, salaries 40
//
// giving Budget Revenue 230, COGS 60, Gross Profit 170, Net Profit 130.
func (b *planBuilder) WithScenarioAmounts() Builder {
	b.WithStandardPL().
		WithDataset(Budget, model.DatasetBudget).
		WithDataset(Forecast, model.DatasetForecast)

	return b.
		WithAmount(ProductSales, Budget, 1, "100").
		WithAmount(OnlineSales, Budget, 1, "50").
		WithAmount(Consulting, Budget, 1, "80").
		WithAmount(RawMaterials, Budget, 1, "60").
		WithAmount(Salaries, Budget, 1, "40").
		WithAmount(ProductSales, Forecast, 1, "120").
		WithAmount(OnlineSales, Forecast, 1, "50").
		WithAmount(Consulting, Forecast, 1, "70").
		WithAmount(RawMaterials, Forecast, 1, "65").
		WithAmount(Salaries, Forecast, 1, "40")
}

func (b *planBuilder) Build() (*hierarchy.Model, error) {
	b.t.Helper()

	m := hierarchy.New()
	for _, s := range b.sections {
		if err := m.AddSection(s); err != nil {
			return nil, fmt.Errorf("failed to add section %q: %w", s.ID, err)
		}
	}
	for _, c := range b.categories {
		if err := m.AddCategory(c); err != nil {
			return nil, fmt.Errorf("failed to add category %q: %w", c.ID, err)
		}
	}
	for _, s := range b.subcategories {
		if err := m.AddSubcategory(s); err != nil {
			return nil, fmt.Errorf("failed to add subcategory %q: %w", s.ID, err)
		}
	}
	for _, d := range b.datasets {
		if err := m.AddDataset(d); err != nil {
			return nil, fmt.Errorf("failed to add dataset %q: %w", d.ID, err)
		}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	for _, a := range b.amounts {
		value, err := decimal.NewFromString(a.value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", a.value, err)
		}
		if err := m.SetMonthlyAmount(a.sub, a.dataset, a.month, value); err != nil {
			return nil, fmt.Errorf("failed to set %s/%s/%d: %w", a.sub, a.dataset, a.month, err)
		}
	}

	return m, nil
}

func (b *planBuilder) MustBuild() *hierarchy.Model {
	b.t.Helper()
	m, err := b.Build()
	if err != nil {
		b.t.Fatalf("failed to build test hierarchy: %v", err)
	}
	return m
}
