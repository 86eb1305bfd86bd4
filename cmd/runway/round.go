package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/runway/internal/captable"
	"github.com/Veraticus/runway/internal/cli"
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
)

func roundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Price a financing round and show its dilution",
		Long: `Price a round against the current cap table.

Holders are valued before the round at --pre-round-valuation, which
defaults to the round's pre-money valuation.`,
		Args: cobra.NoArgs,
		RunE: runRound,
	}

	cmd.Flags().String("investment", "", "amount invested")
	cmd.Flags().String("post-money", "", "post-money valuation")
	cmd.Flags().String("type", string(model.RoundSeed), "pre_seed, seed, series_a, series_b, series_c or bridge")
	cmd.Flags().String("name", "", "round name")
	cmd.Flags().String("pre-round-valuation", "", "company value used for holders' value before the round")
	_ = cmd.MarkFlagRequired("investment")
	_ = cmd.MarkFlagRequired("post-money")

	cmd.AddCommand(projectRoundsCmd())
	return cmd
}

func runRound(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	round, err := roundFromFlags(cmd)
	if err != nil {
		return err
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

	result, err := captable.CalculateRoundFor(tbl, round)
	if err != nil {
		return err
	}

	preRound := result.PreMoneyValuation
	if raw, _ := cmd.Flags().GetString("pre-round-valuation"); raw != "" {
		if preRound, err = parseAmount("pre-round valuation", raw); err != nil {
			return err
		}
	}

	impacts, err := captable.Dilution(tbl, result, preRound)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := cli.RenderRound(out, result); err != nil {
		return err
	}
	return cli.RenderDilution(out, impacts)
}

func roundFromFlags(cmd *cobra.Command) (model.InvestmentRound, error) {
	rawInv, _ := cmd.Flags().GetString("investment")
	rawPost, _ := cmd.Flags().GetString("post-money")
	roundType, _ := cmd.Flags().GetString("type")
	name, _ := cmd.Flags().GetString("name")

	inv, err := parseAmount("investment", rawInv)
	if err != nil {
		return model.InvestmentRound{}, err
	}
	post, err := parseAmount("post-money valuation", rawPost)
	if err != nil {
		return model.InvestmentRound{}, err
	}
	return model.InvestmentRound{
		InvestmentAmount:   inv,
		PostMoneyValuation: post,
		Name:               name,
		Type:               model.RoundType(roundType),
	}, nil
}

func projectRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Short:   "Apply several rounds in sequence",
		Example: `  runway round project --round 2000000:10000000:seed --round 8000000:40000000:series_a`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			specs, _ := cmd.Flags().GetStringArray("round")
			if len(specs) == 0 {
				return common.NewUserError("Give at least one --round INVESTMENT:POST_MONEY[:TYPE].", nil)
			}
			rounds := make([]model.InvestmentRound, 0, len(specs))
			for _, s := range specs {
				r, err := parseRoundSpec(s)
				if err != nil {
					return err
				}
				rounds = append(rounds, r)
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

			projection, err := captable.ProjectRounds(tbl, rounds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, step := range projection.Steps {
				fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Round %d: %s", i+1, step.Round.Type)))
				if err := cli.RenderRound(out, step.Result); err != nil {
					return err
				}
				if err := cli.RenderDilution(out, step.Dilution); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}

			fmt.Fprintln(out, cli.FormatTitle("Cap table after all rounds"))
			return cli.RenderCapTable(out, projection.Final)
		},
	}

	cmd.Flags().StringArray("round", nil, "INVESTMENT:POST_MONEY[:TYPE], repeatable")
	return cmd
}

// parseRoundSpec parses INVESTMENT:POST_MONEY[:TYPE].
func parseRoundSpec(s string) (model.InvestmentRound, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return model.InvestmentRound{}, common.NewValidationError("round", s, "must look like INVESTMENT:POST_MONEY[:TYPE]")
	}
	inv, err := parseAmount("investment", parts[0])
	if err != nil {
		return model.InvestmentRound{}, err
	}
	post, err := parseAmount("post-money valuation", parts[1])
	if err != nil {
		return model.InvestmentRound{}, err
	}
	r := model.InvestmentRound{InvestmentAmount: inv, PostMoneyValuation: post, Type: model.RoundSeed}
	if len(parts) == 3 {
		r.Type = model.RoundType(parts[2])
	}
	return r, nil
}
