package captable

import (
	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

// DilutionImpact is the effect of a round on one existing holder.
type DilutionImpact struct {
	CurrentOwnershipPct decimal.Decimal
	OwnershipAfterPct   decimal.Decimal
	DilutionPct         decimal.Decimal
	ValueBefore         decimal.Decimal
	ValueAfter          decimal.Decimal
	ValueChange         decimal.Decimal
	HolderID            model.HolderID
	Name                string
	Type                model.HolderType
	Shares              int64
}

// Dilution computes every holder's ownership before and after the round.
// ValueBefore is priced at preRoundValuation, which callers pass explicitly;
// it is not assumed to equal the round's pre-money valuation.
func Dilution(t *Table, round RoundResult, preRoundValuation decimal.Decimal) ([]DilutionImpact, error) {
	if err := checkRound(t, round, preRoundValuation); err != nil {
		return nil, err
	}
	out := make([]DilutionImpact, 0, t.Len())
	for _, e := range t.entries {
		out = append(out, impact(e, round, preRoundValuation))
	}
	return out, nil
}

// DilutionFor computes the dilution of a single holder.
func DilutionFor(t *Table, holder model.HolderID, round RoundResult, preRoundValuation decimal.Decimal) (DilutionImpact, error) {
	if err := checkRound(t, round, preRoundValuation); err != nil {
		return DilutionImpact{}, err
	}
	e, err := t.Find(holder)
	if err != nil {
		return DilutionImpact{}, err
	}
	return impact(e, round, preRoundValuation), nil
}

func checkRound(t *Table, round RoundResult, preRoundValuation decimal.Decimal) error {
	if round.TotalSharesBefore <= 0 || round.TotalSharesAfter < round.TotalSharesBefore {
		return common.NewValidationError("round", nil, "has no valid share counts")
	}
	if round.TotalSharesBefore < t.TotalShares() {
		return common.NewValidationError("total shares outstanding", round.TotalSharesBefore,
			"is smaller than the shares held in the cap table")
	}
	if preRoundValuation.IsNegative() {
		return common.NewValidationError("pre-round valuation", preRoundValuation, "cannot be negative")
	}
	return nil
}

func impact(e model.CapTableEntry, round RoundResult, preRoundValuation decimal.Decimal) DilutionImpact {
	shares := decimal.NewFromInt(e.SharesOwned)
	before := decimal.NewFromInt(round.TotalSharesBefore)
	after := decimal.NewFromInt(round.TotalSharesAfter)

	current := shares.Div(before).Mul(hundred)
	owned := shares.Div(after).Mul(hundred)

	// current - owned, in a single division.
	dilution := shares.Mul(after.Sub(before)).Mul(hundred).Div(before.Mul(after))

	valueBefore := current.Mul(preRoundValuation).Div(hundred)
	valueAfter := owned.Mul(round.PostMoneyValuation).Div(hundred)

	return DilutionImpact{
		HolderID:            e.ID,
		Name:                e.Name,
		Type:                e.Type,
		Shares:              e.SharesOwned,
		CurrentOwnershipPct: current,
		OwnershipAfterPct:   owned,
		DilutionPct:         dilution,
		ValueBefore:         valueBefore,
		ValueAfter:          valueAfter,
		ValueChange:         valueAfter.Sub(valueBefore),
	}
}
