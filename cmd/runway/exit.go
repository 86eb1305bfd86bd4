package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/captable"
	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
)

func exitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exit VALUATION",
		Short: "Split an exit valuation across the cap table",
		Long: `Split VALUATION pro rata by shares owned. Payouts are rounded to
cents and always add up to VALUATION exactly.

With --investment and --post-money the round is applied first and the
exit is split across the table as it stands after the round.`,
		Example: `  runway exit 10000000
  runway exit 50000000 --investment 2000000 --post-money 10000000 --name "Seed fund"`,
		Args: cobra.ExactArgs(1),
		RunE: runExit,
	}

	cmd.Flags().String("investment", "", "amount invested in a round before the exit")
	cmd.Flags().String("post-money", "", "post-money valuation of that round")
	cmd.Flags().String("type", string(model.RoundSeed), "round type")
	cmd.Flags().String("name", "", "name of the round's investor")
	return cmd
}

func runExit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	valuation, err := parseAmount("exit valuation", args[0])
	if err != nil {
		return err
	}

	withRound := cmd.Flags().Changed("investment") || cmd.Flags().Changed("post-money")
	if withRound && !(cmd.Flags().Changed("investment") && cmd.Flags().Changed("post-money")) {
		return common.NewUserError("Give both --investment and --post-money to apply a round before the exit.", nil)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tbl, err := loadCapTable(ctx, store)
	if err != nil {
		return err
	}

	if withRound {
		if tbl, err = applyRound(cmd, tbl); err != nil {
			return err
		}
	}

	payouts, err := captable.ExitScenario(tbl, valuation)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Exit at "+cli.FormatMoney(valuation)))
	return cli.RenderExit(cmd.OutOrStdout(), payouts)
}

// applyRound prices the round from the command's flags and returns the
// table after it, with the investor added as a preferred holder.
func applyRound(cmd *cobra.Command, tbl *captable.Table) (*captable.Table, error) {
	round, err := roundFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	result, err := captable.CalculateRoundFor(tbl, round)
	if err != nil {
		return nil, err
	}

	name := round.Name
	if name == "" {
		name = "New investor"
	}
	return captable.PostRoundTable(tbl, result, model.CapTableEntry{
		ID:         "new-investor",
		Name:       name,
		Type:       model.HolderInvestor,
		ShareClass: "preferred",
	})
}
