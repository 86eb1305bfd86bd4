package captable

import (
	"math"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

// RoundInput describes a proposed priced round.
type RoundInput struct {
	InvestmentAmount       decimal.Decimal
	PostMoneyValuation     decimal.Decimal
	TotalSharesOutstanding int64
}

// RoundResult is the outcome of a priced round.
type RoundResult struct {
	InvestmentAmount        decimal.Decimal
	PostMoneyValuation      decimal.Decimal
	PreMoneyValuation       decimal.Decimal
	PricePerShare           decimal.Decimal
	NewInvestorOwnershipPct decimal.Decimal
	NewShares               int64
	TotalSharesBefore       int64
	TotalSharesAfter        int64
}

// CalculateRound issues new shares so that the investment buys its share of
// the post-money valuation:
//
//	newShares = round(total * investment / (postMoney - investment))
//	pricePerShare = postMoney / (total + newShares)
//
// Shares are rounded half away from zero.
func CalculateRound(in RoundInput) (RoundResult, error) {
	if !in.InvestmentAmount.IsPositive() {
		return RoundResult{}, common.NewValidationError("investment amount", in.InvestmentAmount, "must be greater than zero")
	}
	if in.PostMoneyValuation.LessThanOrEqual(in.InvestmentAmount) {
		return RoundResult{}, common.NewValidationError("post-money valuation", in.PostMoneyValuation, "must exceed the investment amount")
	}
	if in.TotalSharesOutstanding <= 0 {
		return RoundResult{}, common.NewValidationError("total shares outstanding", in.TotalSharesOutstanding, "must be greater than zero")
	}

	preMoney := in.PostMoneyValuation.Sub(in.InvestmentAmount)
	total := decimal.NewFromInt(in.TotalSharesOutstanding)

	issued := total.Mul(in.InvestmentAmount).Div(preMoney).Round(0)
	if !issued.IsPositive() {
		return RoundResult{}, common.NewValidationError("investment amount", in.InvestmentAmount, "is too small to buy a whole share")
	}
	if issued.GreaterThan(decimal.NewFromInt(math.MaxInt64 - in.TotalSharesOutstanding)) {
		return RoundResult{}, common.NewValidationError("investment amount", in.InvestmentAmount, "issues more shares than can be represented")
	}

	newShares := issued.IntPart()
	after := in.TotalSharesOutstanding + newShares
	afterDec := decimal.NewFromInt(after)
	price := in.PostMoneyValuation.Div(afterDec)

	// newShares * price may differ from the investment by at most one share's
	// price; scaled by totalAfter: |newShares * post - investment * after| <= post.
	if issued.Mul(in.PostMoneyValuation).Sub(in.InvestmentAmount.Mul(afterDec)).Abs().GreaterThan(in.PostMoneyValuation) {
		return RoundResult{}, common.NewValidationError("round", nil, "share count and price are inconsistent with the investment")
	}

	return RoundResult{
		InvestmentAmount:        in.InvestmentAmount,
		PostMoneyValuation:      in.PostMoneyValuation,
		PreMoneyValuation:       preMoney,
		PricePerShare:           price,
		NewInvestorOwnershipPct: issued.Div(afterDec).Mul(hundred),
		NewShares:               newShares,
		TotalSharesBefore:       in.TotalSharesOutstanding,
		TotalSharesAfter:        after,
	}, nil
}

// CalculateRoundFor prices a proposed round against a table's share count.
func CalculateRoundFor(t *Table, round model.InvestmentRound) (RoundResult, error) {
	if round.Type != "" && !round.Type.Valid() {
		return RoundResult{}, common.NewValidationError("round type", round.Type, "is not recognized")
	}
	return CalculateRound(RoundInput{
		InvestmentAmount:       round.InvestmentAmount,
		PostMoneyValuation:     round.PostMoneyValuation,
		TotalSharesOutstanding: t.TotalShares(),
	})
}

// PostRoundTable returns the table after the round: every existing holder
// keeps their shares, the investor receives the new shares, and everyone
// is repriced at the round's price per share. The round must have been
// priced against this table's total.
func PostRoundTable(t *Table, round RoundResult, investor model.CapTableEntry) (*Table, error) {
	if round.TotalSharesBefore != t.TotalShares() {
		return nil, common.NewValidationError("round", round.TotalSharesBefore,
			"was priced against a different share count than the table holds")
	}
	if investor.Type == "" {
		investor.Type = model.HolderInvestor
	}
	investor.SharesOwned = round.NewShares

	next, err := t.withEntry(investor)
	if err != nil {
		return nil, err
	}
	if err := next.Reprice(round.PricePerShare); err != nil {
		return nil, err
	}
	return next, nil
}
