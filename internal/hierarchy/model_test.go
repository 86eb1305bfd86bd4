package hierarchy

import (
	"math"
	"testing"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	budget model.DatasetID = "budget-2025"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := New()

	require.NoError(t, m.AddSection(model.Section{ID: "revenue", Name: "Revenue", Order: 1}))
	require.NoError(t, m.AddSection(model.Section{ID: "cogs", Name: "COGS", Order: 2}))
	require.NoError(t, m.AddSection(model.Section{
		ID: "gross_profit", Name: "Gross Profit", Order: 3,
		IsCalculated: true, Calculation: model.CalculationGrossProfit,
		Operands: []model.SectionID{"revenue", "cogs"},
	}))
	require.NoError(t, m.AddCategory(model.Category{ID: "sales", SectionID: "revenue", Name: "Sales", Order: 1}))
	require.NoError(t, m.AddCategory(model.Category{ID: "services", SectionID: "revenue", Name: "Services", Order: 2}))
	require.NoError(t, m.AddSubcategory(model.Subcategory{ID: "product", CategoryID: "sales", Name: "Product", Order: 1}))
	require.NoError(t, m.AddSubcategory(model.Subcategory{ID: "online", CategoryID: "sales", Name: "Online", Order: 2}))
	require.NoError(t, m.AddDataset(model.Dataset{ID: budget, Name: "Budget", Kind: model.DatasetBudget, FiscalYear: 2025}))
	require.NoError(t, m.Validate())

	return m
}

func TestModel_GetMonthlyAmount_AbsentIsZero(t *testing.T) {
	m := newTestModel(t)

	got, err := m.GetMonthlyAmount("product", budget, 1)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestModel_SetMonthlyAmount(t *testing.T) {
	m := newTestModel(t)

	require.NoError(t, m.SetMonthlyAmount("product", budget, 1, decimal.NewFromInt(100)))
	require.NoError(t, m.SetMonthlyAmount("product", budget, 1, decimal.NewFromInt(120)))

	got, err := m.GetMonthlyAmount("product", budget, 1)
	require.NoError(t, err)
	assert.Equal(t, "120", got.String())
	assert.Len(t, m.Cells(budget), 1, "upsert must keep one amount per key")
}

func TestModel_SetMonthlyAmount_Errors(t *testing.T) {
	m := newTestModel(t)

	tests := []struct {
		wantErr error
		name    string
		sub     model.SubcategoryID
		dataset model.DatasetID
		month   model.Month
	}{
		{name: "month zero", sub: "product", dataset: budget, month: 0, wantErr: common.ErrValidation},
		{name: "month thirteen", sub: "product", dataset: budget, month: 13, wantErr: common.ErrValidation},
		{name: "unknown leaf", sub: "nope", dataset: budget, month: 1, wantErr: common.ErrNotFound},
		{name: "unknown dataset", sub: "product", dataset: "nope", month: 1, wantErr: common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.SetMonthlyAmount(tt.sub, tt.dataset, tt.month, decimal.NewFromInt(1))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, m.Cells(budget))
}

func TestModel_SetMonthlyAmountFloat_RejectsNonFinite(t *testing.T) {
	m := newTestModel(t)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := m.SetMonthlyAmountFloat("product", budget, 2, v)
		assert.ErrorIs(t, err, common.ErrValidation)
	}

	require.NoError(t, m.SetMonthlyAmountFloat("product", budget, 2, 42.5))
	got, err := m.GetMonthlyAmount("product", budget, 2)
	require.NoError(t, err)
	assert.Equal(t, "42.5", got.String())
}

func TestModel_AddRows_Errors(t *testing.T) {
	m := newTestModel(t)

	err := m.AddCategory(model.Category{ID: "sales", SectionID: "cogs", Name: "Dup"})
	assert.ErrorIs(t, err, common.ErrValidation, "ids are unique across levels")

	err = m.AddSubcategory(model.Subcategory{ID: "revenue", CategoryID: "sales", Name: "Clash"})
	assert.ErrorIs(t, err, common.ErrValidation)

	err = m.AddCategory(model.Category{ID: "orphan", SectionID: "missing", Name: "Orphan"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = m.AddCategory(model.Category{ID: "gp_detail", SectionID: "gross_profit", Name: "Detail"})
	assert.ErrorIs(t, err, common.ErrValidation, "calculated sections own no categories")

	err = m.AddDataset(model.Dataset{ID: budget, Name: "Again", Kind: model.DatasetBudget, FiscalYear: 2025})
	assert.ErrorIs(t, err, common.ErrValidation)

	err = m.AddDataset(model.Dataset{ID: "sb", Name: "Sandbox", Kind: model.DatasetSandbox, FiscalYear: 2025})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestModel_Validate(t *testing.T) {
	t.Run("missing operand", func(t *testing.T) {
		m := New()
		require.NoError(t, m.AddSection(model.Section{ID: "revenue", Name: "Revenue"}))
		require.NoError(t, m.AddSection(model.Section{
			ID: "gp", Name: "GP", IsCalculated: true, Calculation: model.CalculationGrossProfit,
			Operands: []model.SectionID{"revenue", "cogs"},
		}))
		assert.ErrorIs(t, m.Validate(), common.ErrNotFound)
	})

	t.Run("cycle", func(t *testing.T) {
		m := New()
		require.NoError(t, m.AddSection(model.Section{ID: "expenses", Name: "Expenses"}))
		require.NoError(t, m.AddSection(model.Section{
			ID: "a", Name: "A", IsCalculated: true, Calculation: model.CalculationGrossProfit,
			Operands: []model.SectionID{"b", "expenses"},
		}))
		require.NoError(t, m.AddSection(model.Section{
			ID: "b", Name: "B", IsCalculated: true, Calculation: model.CalculationNetProfit,
			Operands: []model.SectionID{"a", "expenses"},
		}))
		assert.ErrorIs(t, m.Validate(), common.ErrValidation)
	})
}

func TestModel_Load(t *testing.T) {
	m := newTestModel(t)

	good := []model.AmountRecord{
		{SubcategoryID: "product", DatasetID: budget, FiscalYear: 2025, Month: 1, Amount: decimal.NewFromInt(100)},
		{SubcategoryID: "online", DatasetID: budget, FiscalYear: 2025, Month: 1, Amount: decimal.NewFromInt(50)},
	}
	require.NoError(t, m.Load(good))
	assert.Len(t, m.Cells(budget), 2)

	bad := []model.AmountRecord{
		{SubcategoryID: "product", DatasetID: budget, FiscalYear: 2025, Month: 2, Amount: decimal.NewFromInt(7)},
		{SubcategoryID: "product", DatasetID: budget, FiscalYear: 2024, Month: 3, Amount: decimal.NewFromInt(7)},
	}
	err := m.Load(bad)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "record at index 1")

	got, err := m.GetMonthlyAmount("product", budget, 2)
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "rejected batch must not be partially applied")
}

func TestModel_RowsInDisplayOrder(t *testing.T) {
	m := newTestModel(t)

	var ids []string
	for _, r := range m.Rows() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"revenue", "sales", "product", "online", "services", "cogs", "gross_profit"}, ids)

	kind, err := m.Row("online")
	require.NoError(t, err)
	assert.Equal(t, model.RowSubcategory, kind)

	_, err = m.Row("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestModel_CloneIsIndependent(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetMonthlyAmount("product", budget, 1, decimal.NewFromInt(100)))

	c := m.Clone()
	require.NoError(t, c.SetMonthlyAmount("product", budget, 1, decimal.NewFromInt(999)))

	orig, err := m.GetMonthlyAmount("product", budget, 1)
	require.NoError(t, err)
	assert.Equal(t, "100", orig.String())

	records, err := c.Records(budget)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2025, records[0].FiscalYear)
	assert.Equal(t, "999", records[0].Amount.String())
}

func TestModel_VersionMovesOnChange(t *testing.T) {
	m := newTestModel(t)
	v := m.Version()

	require.NoError(t, m.SetMonthlyAmount("product", budget, 1, decimal.NewFromInt(100)))
	assert.Greater(t, m.Version(), v)
	v = m.Version()

	require.Error(t, m.SetMonthlyAmount("product", budget, 13, decimal.NewFromInt(1)))
	assert.Equal(t, v, m.Version(), "rejected writes leave the version alone")

	require.NoError(t, m.Load([]model.AmountRecord{
		{SubcategoryID: "online", DatasetID: budget, FiscalYear: 2025, Month: 1, Amount: decimal.NewFromInt(50)},
	}))
	assert.Greater(t, m.Version(), v)
	v = m.Version()

	require.NoError(t, m.AddSubcategory(model.Subcategory{ID: "consulting", CategoryID: "services", Name: "Consulting"}))
	assert.Greater(t, m.Version(), v)

	assert.Equal(t, m.Version(), m.Clone().Version())
}
