package captable

import (
	"cmp"
	"math/big"
	"slices"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

// Payout is one holder's share of an exit.
type Payout struct {
	OwnershipPct decimal.Decimal
	Payout       decimal.Decimal
	HolderID     model.HolderID
	Name         string
	Type         model.HolderType
	Shares       int64
}

// ExitScenario splits an exit valuation across the table pro rata by
// shares. Payouts are in cents, allocated by largest remainder so that they
// sum exactly to the exit valuation rounded to cents. Results are ordered
// by payout descending, then name ascending.
func ExitScenario(t *Table, exitValuation decimal.Decimal) ([]Payout, error) {
	if !exitValuation.IsPositive() {
		return nil, common.NewValidationError("exit valuation", exitValuation, "must be greater than zero")
	}
	total := t.TotalShares()
	if total <= 0 {
		return nil, common.NewValidationError("cap table", nil, "holds no shares")
	}

	exitCents := exitValuation.Shift(2).Round(0).BigInt()
	totalBig := big.NewInt(total)

	type share struct {
		cents     *big.Int
		remainder *big.Int
		index     int
	}
	shares := make([]share, len(t.entries))
	allocated := new(big.Int)
	for i, e := range t.entries {
		num := new(big.Int).Mul(big.NewInt(e.SharesOwned), exitCents)
		q, r := new(big.Int).QuoRem(num, totalBig, new(big.Int))
		shares[i] = share{cents: q, remainder: r, index: i}
		allocated.Add(allocated, q)
	}

	// The leftover is always fewer cents than there are holders.
	leftover := new(big.Int).Sub(exitCents, allocated).Int64()
	byRemainder := slices.Clone(shares)
	slices.SortStableFunc(byRemainder, func(a, b share) int {
		return b.remainder.Cmp(a.remainder)
	})
	for i := int64(0); i < leftover; i++ {
		s := byRemainder[i]
		shares[s.index].cents.Add(s.cents, big.NewInt(1))
	}

	totalDec := decimal.NewFromInt(total)
	out := make([]Payout, 0, len(t.entries))
	for i, e := range t.entries {
		out = append(out, Payout{
			HolderID:     e.ID,
			Name:         e.Name,
			Type:         e.Type,
			Shares:       e.SharesOwned,
			OwnershipPct: decimal.NewFromInt(e.SharesOwned).Div(totalDec).Mul(hundred),
			Payout:       decimal.NewFromBigInt(shares[i].cents, -2),
		})
	}

	slices.SortFunc(out, func(a, b Payout) int {
		return cmp.Or(
			b.Payout.Cmp(a.Payout),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.HolderID, b.HolderID),
		)
	})
	return out, nil
}

// TotalPayout sums a set of payouts.
func TotalPayout(payouts []Payout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Payout)
	}
	return total
}
