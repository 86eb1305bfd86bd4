package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/model"
)

func datasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage budgets, forecasts and actuals",
	}

	cmd.AddCommand(addDatasetCmd())
	cmd.AddCommand(listDatasetsCmd())

	return cmd
}

func addDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Create or rename a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, _ := cmd.Flags().GetString("name")
			kind, _ := cmd.Flags().GetString("kind")
			if name == "" {
				name = args[0]
			}

			ds := &model.Dataset{
				ID:         model.DatasetID(args[0]),
				Name:       name,
				Kind:       model.DatasetKind(kind),
				FiscalYear: fiscalYear(cmd),
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveDataset(ctx, ds); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Saved %s dataset %q for %d", ds.Kind, ds.ID, ds.FiscalYear)))
			return nil
		},
	}

	cmd.Flags().String("name", "", "display name (default: the id)")
	cmd.Flags().String("kind", string(model.DatasetBudget), "budget, forecast or actual")
	addYearFlag(cmd)
	return cmd
}

func listDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			datasets, err := store.GetDatasets(ctx)
			if err != nil {
				return err
			}
			if len(datasets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No datasets found. Use 'runway datasets add' to create one."))
				return nil
			}
			return cli.RenderDatasets(cmd.OutOrStdout(), datasets)
		},
	}
}
