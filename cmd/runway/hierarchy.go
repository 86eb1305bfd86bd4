package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/feed"
)

func hierarchyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Manage the Section / Category / Subcategory tree",
		Long: `Import a hierarchy definition file and inspect the stored tree.

Calculated sections such as Gross Profit and Net Profit are declared in the
file with their operands; their values are always derived, never stored.`,
	}

	cmd.AddCommand(importHierarchyCmd())
	cmd.AddCommand(listHierarchyCmd())

	return cmd
}

func importHierarchyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a YAML hierarchy definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open hierarchy file: %w", err)
			}
			defer func() { _ = f.Close() }()

			def, err := feed.ParseHierarchyYAML(f)
			if err != nil {
				return err
			}
			tree, err := def.Build()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveHierarchy(ctx, tree); err != nil {
				return fmt.Errorf("failed to save hierarchy: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Imported %d rows and %d datasets", len(tree.Rows()), len(tree.Datasets()))))
			return nil
		},
	}
}

func listHierarchyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the stored hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tree, err := loadTree(ctx, cmd, store)
			if err != nil {
				return err
			}
			return cli.RenderHierarchy(cmd.OutOrStdout(), tree)
		},
	}
	addYearFlag(cmd)
	return cmd
}
