package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [DATASET]",
		Short: "Show the rolled-up budget of a dataset",
		Long: `Show every row of the hierarchy with its rolled-up amounts.

The dataset defaults to report.dataset from the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			period := cli.Period(viper.GetString("report.period"))
			if p, _ := cmd.Flags().GetString("period"); p != "" {
				period = cli.Period(p)
			}
			switch period {
			case cli.PeriodMonths, cli.PeriodQuarters, cli.PeriodYear:
			case "":
				period = cli.PeriodMonths
			default:
				return common.NewValidationError("period", period, "must be months, quarters or year")
			}

			dataset, err := datasetArg(args, 0, "report.dataset")
			if err != nil {
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

			report, err := rollup.New(tree).Report(model.DatasetID(dataset))
			if err != nil {
				return err
			}

			return cli.RenderReport(cmd.OutOrStdout(), report, period)
		},
	}

	cmd.Flags().String("period", "", "columns to show: months, quarters or year")
	addYearFlag(cmd)
	return cmd
}
