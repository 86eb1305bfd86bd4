// Package captable simulates financing rounds against a cap table: share
// issuance, per-holder dilution and exit payouts. Every function is pure;
// inputs are supplied again on each recompute.
package captable

import (
	"slices"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Table is a validated list of shareholders in caller order.
type Table struct {
	entries []model.CapTableEntry
}

// NewTable validates the entries and computes their ownership and value.
func NewTable(entries []model.CapTableEntry) (*Table, error) {
	seen := make(map[model.HolderID]bool, len(entries))
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, err
		}
		if seen[entries[i].ID] {
			return nil, common.NewValidationError("holder id", entries[i].ID, "appears more than once")
		}
		seen[entries[i].ID] = true
	}

	t := &Table{entries: slices.Clone(entries)}
	t.Recompute()
	return t, nil
}

// Entries returns a copy of the holders.
func (t *Table) Entries() []model.CapTableEntry {
	return slices.Clone(t.entries)
}

// Len returns the number of holders.
func (t *Table) Len() int {
	return len(t.entries)
}

// TotalShares returns the sum of every holder's shares.
func (t *Table) TotalShares() int64 {
	var total int64
	for _, e := range t.entries {
		total += e.SharesOwned
	}
	return total
}

// Find returns the holder with the given id.
func (t *Table) Find(id model.HolderID) (model.CapTableEntry, error) {
	for _, e := range t.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return model.CapTableEntry{}, common.NewNotFoundError("holder", string(id))
}

// Recompute derives OwnershipPct from the table total and TotalValue from
// each holder's share price.
func (t *Table) Recompute() {
	total := decimal.NewFromInt(t.TotalShares())
	for i := range t.entries {
		e := &t.entries[i]
		shares := decimal.NewFromInt(e.SharesOwned)
		if total.IsZero() {
			e.OwnershipPct = decimal.Zero
		} else {
			e.OwnershipPct = shares.Div(total).Mul(hundred)
		}
		e.TotalValue = shares.Mul(e.SharePrice)
	}
}

// Reprice sets every holder's share price and recomputes.
func (t *Table) Reprice(price decimal.Decimal) error {
	if price.IsNegative() {
		return common.NewValidationError("share price", price, "cannot be negative")
	}
	for i := range t.entries {
		t.entries[i].SharePrice = price
	}
	t.Recompute()
	return nil
}

// OwnershipByType returns the percentage of the table held by each holder type.
func (t *Table) OwnershipByType() map[model.HolderType]decimal.Decimal {
	out := make(map[model.HolderType]decimal.Decimal)
	total := t.TotalShares()
	if total == 0 {
		return out
	}
	shares := make(map[model.HolderType]int64)
	for _, e := range t.entries {
		shares[e.Type] += e.SharesOwned
	}
	for typ, n := range shares {
		out[typ] = decimal.NewFromInt(n).Div(decimal.NewFromInt(total)).Mul(hundred)
	}
	return out
}

func (t *Table) withEntry(e model.CapTableEntry) (*Table, error) {
	return NewTable(append(t.Entries(), e))
}
