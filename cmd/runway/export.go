package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/config"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/service"
	"github.com/Veraticus/runway/internal/sheets"
	"github.com/Veraticus/runway/internal/variance"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [DATASET]",
		Short: "Write reports to Google Sheets",
		Long: `Write the rolled-up report of DATASET to a Google Sheets tab.

With --compare, a variance tab comparing the two datasets is written too.
Credentials come from the sheets section of the config file or from the
GOOGLE_SHEETS_* environment variables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("compare", "", "also write a variance tab against this dataset")
	addYearFlag(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dataset, err := datasetArg(args, 0, "report.dataset")
	if err != nil {
		return err
	}
	compare, _ := cmd.Flags().GetString("compare")

	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return common.NewUserError("Google Sheets is not configured. Set sheets.service_account_path or the OAuth client settings.", err)
		}
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tree, err := loadTree(ctx, cmd, store)
	if err != nil {
		return err
	}
	calc := rollup.New(tree)

	budget, err := calc.Report(model.DatasetID(dataset))
	if err != nil {
		return err
	}

	var diff *variance.Report
	if compare != "" {
		if diff, err = variance.NewEngine(calc).DiffReport(model.DatasetID(dataset), model.DatasetID(compare)); err != nil {
			return err
		}
	}

	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return err
	}

	if err := writeReports(ctx, writer, budget, diff); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exported to spreadsheet "+writer.SpreadsheetID()))
	return nil
}

// writeReports writes the budget tab and, when diff is set, the variance tab.
func writeReports(ctx context.Context, w service.ReportWriter, budget *rollup.Report, diff *variance.Report) error {
	if err := w.WriteBudget(ctx, budget); err != nil {
		return fmt.Errorf("failed to export budget: %w", err)
	}
	if diff != nil {
		if err := w.WriteVariance(ctx, diff); err != nil {
			return fmt.Errorf("failed to export variance: %w", err)
		}
	}
	return nil
}
