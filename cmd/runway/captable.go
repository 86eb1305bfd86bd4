package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
)

func captableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captable",
		Short: "Manage shareholders",
	}

	cmd.AddCommand(addHolderCmd())
	cmd.AddCommand(listHoldersCmd())
	cmd.AddCommand(removeHolderCmd())

	return cmd
}

func addHolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Add or update a shareholder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name, _ := cmd.Flags().GetString("name")
			holderType, _ := cmd.Flags().GetString("type")
			shares, _ := cmd.Flags().GetInt64("shares")
			class, _ := cmd.Flags().GetString("class")
			rawPrice, _ := cmd.Flags().GetString("price")

			price, err := parseAmount("price", rawPrice)
			if err != nil {
				return err
			}

			holder := &model.CapTableEntry{
				ID:          model.HolderID(args[0]),
				Name:        name,
				Type:        model.HolderType(holderType),
				ShareClass:  class,
				SharesOwned: shares,
				SharePrice:  price,
			}
			if holder.Name == "" {
				holder.Name = args[0]
			}
			if err := holder.Validate(); err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveHolder(ctx, holder); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved %s with %d shares", holder.Name, holder.SharesOwned)))
			return nil
		},
	}

	cmd.Flags().String("name", "", "display name (default: the id)")
	cmd.Flags().String("type", string(model.HolderFounder), "founder, investor, employee or advisor")
	cmd.Flags().Int64("shares", 0, "shares owned")
	cmd.Flags().String("class", "common", "share class")
	cmd.Flags().String("price", "0", "price per share")
	_ = cmd.MarkFlagRequired("shares")

	return cmd
}

func listHoldersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the cap table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tbl, err := loadCapTable(ctx, store)
			if err != nil {
				return err
			}

			if raw, _ := cmd.Flags().GetString("price"); raw != "" {
				price, err := parseAmount("price", raw)
				if err != nil {
					return err
				}
				if err := tbl.Reprice(price); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if err := cli.RenderCapTable(out, tbl); err != nil {
				return err
			}

			byType := tbl.OwnershipByType()
			types := make([]string, 0, len(byType))
			for t := range byType {
				types = append(types, string(t))
			}
			sort.Strings(types)

			fmt.Fprintln(out)
			for _, t := range types {
				fmt.Fprintf(out, "%-10s %s\n", t, cli.FormatPercent(byType[model.HolderType(t)]))
			}
			return nil
		},
	}

	cmd.Flags().String("price", "", "value every holder at this price per share")
	return cmd
}

func removeHolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Remove a shareholder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := model.HolderID(args[0])

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				reader := cli.NewNonBlockingReader(cmd.InOrStdin())
				ok, err := cli.Confirm(ctx, reader, cmd.OutOrStdout(), fmt.Sprintf("Remove %s from the cap table?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing removed"))
					return nil
				}
			}

			if err := store.DeleteHolder(ctx, id); err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No holder with id %q.", id), err)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed %s", id)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	return cmd
}
