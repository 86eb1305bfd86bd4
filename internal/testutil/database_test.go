package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/service"
	"github.com/Veraticus/runway/internal/testutil/fixtures"
)

func TestSetupTestDBWithBuilder(t *testing.T) {
	db := SetupTestDBWithBuilder(t, func(b fixtures.Builder) fixtures.Builder {
		return b.WithScenarioAmounts()
	})

	tree := db.MustLoad()
	calc := rollup.New(tree)

	gp, err := calc.SectionTotal(fixtures.GrossProfit, fixtures.Budget, 1)
	require.NoError(t, err)
	assert.Equal(t, "170", gp.String())
}

func TestSetupTestDBWithOptions(t *testing.T) {
	called := false
	db := SetupTestDBWithOptions(t, TestDBOptions{
		Holders: fixtures.CapTable(),
		CustomSetup: func(_ context.Context, _ service.Storage) error {
			called = true
			return nil
		},
	})

	assert.True(t, called)
	holders, err := db.Storage.GetHolders(context.Background())
	require.NoError(t, err)
	require.Len(t, holders, 4)
	assert.Equal(t, fixtures.Alice, holders[0].ID)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	db := SetupTestDB(t, nil)
	ctx := context.Background()

	err := db.WithTransaction(func(tx service.Transaction) error {
		return tx.SaveDataset(ctx, &model.Dataset{ID: "scratch", Name: "Scratch", Kind: model.DatasetBudget, FiscalYear: 2025})
	})
	require.NoError(t, err)

	datasets, err := db.Storage.GetDatasets(ctx)
	require.NoError(t, err)
	assert.Empty(t, datasets)
}
