package tui

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/testutil"
	"github.com/Veraticus/runway/internal/testutil/fixtures"
	tuitest "github.com/Veraticus/runway/internal/tui/testing"
	"github.com/Veraticus/runway/internal/variance"
)

func TestModel_SavePersistsToStorage(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b fixtures.Builder) fixtures.Builder {
		return b.WithScenarioAmounts()
	})

	sb, err := variance.NewSandbox(db.MustLoad(), fixtures.Budget)
	require.NoError(t, err)
	m, err := New(context.Background(), sb, WithSize(200, 40), WithSave(db.Storage.SaveAmounts))
	require.NoError(t, err)
	r := tuitest.NewTestRenderer()

	// Raw Materials is the fourth leaf.
	m = apply(t, m, r, tuitest.NewInputSequence(
		tuitest.KeyDown(), tuitest.KeyDown(), tuitest.KeyDown(),
	).EditCell("90"))
	next, cmd := m.Update(tuitest.KeyPress("s"))
	m = r.Run(next, cmd).(Model)
	require.NoError(t, m.lastError)

	reloaded := db.MustLoad()
	raw, err := reloaded.GetMonthlyAmount(fixtures.RawMaterials, fixtures.Budget, 1)
	require.NoError(t, err)
	assert.True(t, raw.Equal(decimal.NewFromInt(90)))

	gp, err := rollup.New(reloaded).MonthlyTotal(string(fixtures.GrossProfit), fixtures.Budget, 1)
	require.NoError(t, err)
	assert.Equal(t, "140", gp.String())

	forecast, err := reloaded.GetMonthlyAmount(fixtures.RawMaterials, fixtures.Forecast, 1)
	require.NoError(t, err)
	assert.Equal(t, "65", forecast.String(), "other datasets are untouched")
}
