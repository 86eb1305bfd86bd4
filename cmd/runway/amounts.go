package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/feed"
	"github.com/Veraticus/runway/internal/model"
)

const defaultImportBatchSize = 500

func amountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amounts",
		Short: "Load and edit monthly subcategory amounts",
	}

	cmd.AddCommand(importAmountsCmd())
	cmd.AddCommand(setAmountCmd())
	cmd.AddCommand(exportAmountsCmd())

	return cmd
}

func importAmountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import amounts from a CSV feed",
		Long: `Import amounts from a CSV file with the columns
subcategory,dataset,fiscal_year,month,amount.

Amounts are written in batches; each batch is atomic. Re-running an import
overwrites the same cells, so an interrupted import can simply be repeated.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportAmounts,
	}

	cmd.Flags().Int("batch-size", defaultImportBatchSize, "amounts written per transaction")
	return cmd
}

func runImportAmounts(cmd *cobra.Command, args []string) error {
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize <= 0 {
		return common.NewValidationError("batch size", batchSize, "must be positive")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open amounts file: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := feed.ParseAmountsCSV(f)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No amounts in file"))
		return nil
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Import",
		"Batches already written were kept. Re-run the import to finish.")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing amounts"),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	saved := 0
	for start := 0; start < len(records); start += batchSize {
		if ctx.Err() != nil {
			break
		}
		batch := records[start:min(start+batchSize, len(records))]
		if err := store.SaveAmounts(ctx, batch); err != nil {
			_ = bar.Exit()
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("failed to import amounts starting at row %d: %w", start+1, err)
		}
		saved += len(batch)
		_ = bar.Add(len(batch))
	}
	_ = bar.Finish()

	if handler.WasInterrupted() || ctx.Err() != nil {
		slog.Warn("amount import interrupted", "saved", saved, "total", len(records))
		return common.NewUserError(fmt.Sprintf("Import interrupted after %d of %d amounts", saved, len(records)), ctx.Err())
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d amounts", saved)))
	return nil
}

func setAmountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set SUBCATEGORY DATASET MONTH AMOUNT",
		Short: "Set one monthly amount",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			month, err := strconv.Atoi(args[2])
			if err != nil {
				return common.NewValidationError("month", args[2], "must be a number from 1 to 12")
			}
			amount, err := parseAmount("amount", args[3])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ds, err := store.GetDataset(ctx, model.DatasetID(args[1]))
			if err != nil {
				return err
			}

			rec := model.AmountRecord{
				SubcategoryID: model.SubcategoryID(args[0]),
				DatasetID:     ds.ID,
				FiscalYear:    ds.FiscalYear,
				Month:         model.Month(month),
				Amount:        amount,
			}
			if err := store.SaveAmounts(ctx, []model.AmountRecord{rec}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"%s %s %s = %s", rec.SubcategoryID, rec.DatasetID, rec.Month, cli.FormatMoney(amount))))
			return nil
		},
	}
}

func exportAmountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export DATASET",
		Short: "Write a dataset's amounts as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.GetDataset(ctx, model.DatasetID(args[0])); err != nil {
				return err
			}
			records, err := store.GetAmounts(ctx, model.DatasetID(args[0]))
			if err != nil {
				return err
			}
			return feed.WriteAmountsCSV(cmd.OutOrStdout(), records)
		},
	}
}
