package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/tui"
	"github.com/Veraticus/runway/internal/tui/themes"
	"github.com/Veraticus/runway/internal/variance"
)

func sandboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox [DATASET]",
		Short: "Try what-if edits on a copy of a dataset",
		Long: `Open an interactive grid over a copy of DATASET.

Edits are applied to the copy only and every rollup updates as you type.
Press s to write the edited cells back to DATASET, r to reset the copy,
and q to leave. Unsaved edits are discarded on exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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

			sb, err := variance.NewSandbox(tree, model.DatasetID(dataset))
			if err != nil {
				return err
			}

			if err := tui.Run(ctx, sb,
				tui.WithSave(store.SaveAmounts),
				tui.WithTheme(themes.GetTheme(viper.GetString("tui.theme"))),
			); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Sandbox closed"))
			return nil
		},
	}

	addYearFlag(cmd)
	return cmd
}
