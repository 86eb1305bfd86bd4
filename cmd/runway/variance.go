package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/variance"
)

func varianceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variance [BASE] [COMPARE]",
		Short: "Compare two datasets row by row",
		Long: `Compare two datasets over every row and month.

BASE defaults to report.dataset and COMPARE to report.compare. A positive
delta means COMPARE is higher than BASE.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			base, err := datasetArg(args, 0, "report.dataset")
			if err != nil {
				return err
			}
			compare, err := datasetArg(args, 1, "report.compare")
			if err != nil {
				return err
			}
			changedOnly, _ := cmd.Flags().GetBool("changed-only")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tree, err := loadTree(ctx, cmd, store)
			if err != nil {
				return err
			}

			report, err := variance.NewEngine(rollup.New(tree)).DiffReport(model.DatasetID(base), model.DatasetID(compare))
			if err != nil {
				return err
			}

			return cli.RenderDiff(cmd.OutOrStdout(), report, changedOnly)
		},
	}

	cmd.Flags().Bool("changed-only", false, "hide rows with no difference")
	addYearFlag(cmd)
	return cmd
}
