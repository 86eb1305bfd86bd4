package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/runway/internal/captable"
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/config"
	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/service"
	"github.com/Veraticus/runway/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// addYearFlag registers --year on commands that work on one fiscal year.
func addYearFlag(cmd *cobra.Command) {
	cmd.Flags().Int("year", 0, "fiscal year (default: report.fiscal_year or the current year)")
}

// fiscalYear resolves --year, then report.fiscal_year, then the current year.
func fiscalYear(cmd *cobra.Command) int {
	if year, _ := cmd.Flags().GetInt("year"); year != 0 {
		return year
	}
	if year := viper.GetInt("report.fiscal_year"); year != 0 {
		return year
	}
	return time.Now().Year()
}

// loadTree loads the hierarchy with every dataset of the selected fiscal year.
func loadTree(ctx context.Context, cmd *cobra.Command, store service.Storage) (*hierarchy.Model, error) {
	year := fiscalYear(cmd)
	tree, err := store.LoadHierarchy(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load hierarchy: %w", err)
	}
	if len(tree.Sections()) == 0 {
		return nil, common.NewUserError("No hierarchy found. Use 'runway hierarchy import' to load one.", nil)
	}
	return tree, nil
}

// datasetArg returns args[i] or the configured default for key.
func datasetArg(args []string, i int, key string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	if ds := viper.GetString(key); ds != "" {
		return ds, nil
	}
	return "", common.NewUserError(fmt.Sprintf("No dataset given and %s is not configured.", key), nil)
}

// parseAmount parses a decimal command-line value.
func parseAmount(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, common.NewValidationError(name, raw, "is not a number")
	}
	return d, nil
}

// loadCapTable builds the cap table from the stored holders.
func loadCapTable(ctx context.Context, store service.Storage) (*captable.Table, error) {
	holders, err := store.GetHolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get holders: %w", err)
	}
	if len(holders) == 0 {
		return nil, common.NewUserError("The cap table is empty. Use 'runway captable add' to add holders.", nil)
	}
	return captable.NewTable(holders)
}
