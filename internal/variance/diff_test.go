package variance_test

import (
	"testing"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/testutil/fixtures"
	"github.com/Veraticus/runway/internal/variance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *variance.Engine {
	t.Helper()
	tree := fixtures.NewBuilder(t).WithScenarioAmounts().MustBuild()
	return variance.NewEngine(rollup.New(tree))
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name      string
		a, b      int64
		want      string
		undefined bool
	}{
		{name: "both zero", a: 0, b: 0, want: "0"},
		{name: "from zero", a: 0, b: 100, undefined: true},
		{name: "from zero to negative", a: 0, b: -5, undefined: true},
		{name: "increase", a: 100, b: 150, want: "50"},
		{name: "decrease", a: 200, b: 150, want: "-25"},
		{name: "to zero", a: 80, b: 0, want: "-100"},
		{name: "negative base", a: -50, b: -25, want: "-50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := variance.PercentChange(decimal.NewFromInt(tt.a), decimal.NewFromInt(tt.b))
			if tt.undefined {
				assert.Equal(t, variance.SentinelUndefinedPercent, got)
				assert.Equal(t, "n/a", got.String())
				return
			}
			assert.False(t, got.Undefined)
			assert.True(t, got.Value.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got.Value, tt.want)
		})
	}
}

func TestTagFor(t *testing.T) {
	assert.Equal(t, variance.TagFavorable, variance.TagFor(decimal.NewFromInt(1)))
	assert.Equal(t, variance.TagUnfavorable, variance.TagFor(decimal.NewFromInt(-1)))
	assert.Equal(t, variance.TagNeutral, variance.TagFor(decimal.Zero))
}

func TestEngine_DiffCell(t *testing.T) {
	e := newEngine(t)

	diff, err := e.DiffCell(string(fixtures.Revenue), fixtures.Budget, fixtures.Forecast, 1)
	require.NoError(t, err)
	assert.Equal(t, "230", diff.ValueA.String())
	assert.Equal(t, "240", diff.ValueB.String())
	assert.Equal(t, "10", diff.Delta.String())
	assert.Equal(t, variance.TagFavorable, diff.Tag)
	assert.False(t, diff.DeltaPercent.Undefined)

	zero, err := e.DiffCell(string(fixtures.Revenue), fixtures.Budget, fixtures.Forecast, 2)
	require.NoError(t, err)
	assert.True(t, zero.DeltaPercent.Value.IsZero())
	assert.False(t, zero.DeltaPercent.Undefined)
	assert.Equal(t, variance.TagNeutral, zero.Tag)

	_, err = e.DiffCell("missing", fixtures.Budget, fixtures.Forecast, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = e.DiffCell(string(fixtures.Revenue), fixtures.Budget, fixtures.Forecast, 0)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestEngine_DiffRow(t *testing.T) {
	e := newEngine(t)

	diff, err := e.DiffRow(string(fixtures.GrossProfit), fixtures.Budget, fixtures.Forecast)
	require.NoError(t, err)
	assert.Equal(t, "Gross Profit", diff.Name)
	assert.Equal(t, model.RowSection, diff.Kind)
	assert.True(t, diff.Changed())

	jan := diff.Cells[0]
	assert.Equal(t, model.Month(1), jan.Month)
	assert.Equal(t, "170", jan.ValueA.String())
	assert.Equal(t, "175", jan.ValueB.String())

	assert.Equal(t, model.Month(0), diff.FiscalYear.Month)
	assert.Equal(t, "170", diff.FiscalYear.ValueA.String())
	assert.Equal(t, "175", diff.FiscalYear.ValueB.String())
	assert.Equal(t, "5", diff.FiscalYear.Delta.String())

	cogs, err := e.DiffRow(string(fixtures.COGS), fixtures.Budget, fixtures.Forecast)
	require.NoError(t, err)
	assert.Equal(t, variance.TagFavorable, cogs.FiscalYear.Tag, "tags follow the sign of the delta")
}

func TestEngine_DiffReport(t *testing.T) {
	e := newEngine(t)

	report, err := e.DiffReport(fixtures.Budget, fixtures.Forecast)
	require.NoError(t, err)
	require.NotEmpty(t, report.Rows)
	assert.Equal(t, string(fixtures.Revenue), report.Rows[0].RowID)

	salaries, ok := report.Row(string(fixtures.Salaries))
	require.True(t, ok)
	assert.False(t, salaries.Changed())
	assert.Equal(t, 2, salaries.Depth)

	_, err = e.DiffReport(fixtures.Budget, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
