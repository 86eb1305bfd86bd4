package model

import (
	"strings"

	"github.com/Veraticus/runway/internal/common"
	"github.com/shopspring/decimal"
)

// HolderID identifies a shareholder.
type HolderID string

// HolderType classifies a shareholder.
type HolderType string

const (
	// HolderFounder is a company founder.
	HolderFounder HolderType = "founder"
	// HolderInvestor is an outside investor.
	HolderInvestor HolderType = "investor"
	// HolderEmployee is an employee holding shares or options.
	HolderEmployee HolderType = "employee"
	// HolderAdvisor is an advisor.
	HolderAdvisor HolderType = "advisor"
)

// Valid reports whether t is a known holder type.
func (t HolderType) Valid() bool {
	switch t {
	case HolderFounder, HolderInvestor, HolderEmployee, HolderAdvisor:
		return true
	}
	return false
}

// CapTableEntry is a shareholder record. OwnershipPct and TotalValue are
// derived and recomputed from the table, never stored authoritatively.
type CapTableEntry struct {
	SharePrice   decimal.Decimal
	OwnershipPct decimal.Decimal
	TotalValue   decimal.Decimal
	ID           HolderID
	Name         string
	Type         HolderType
	ShareClass   string
	SharesOwned  int64
}

// Validate checks the entry's input fields.
func (e *CapTableEntry) Validate() error {
	if strings.TrimSpace(string(e.ID)) == "" {
		return common.NewValidationError("holder id", nil, "is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return common.NewValidationError("holder name", e.ID, "is required")
	}
	if !e.Type.Valid() {
		return common.NewValidationError("holder type", e.Type, "is not recognized")
	}
	if e.SharesOwned < 0 {
		return common.NewValidationError("shares owned", e.SharesOwned, "cannot be negative")
	}
	if e.SharePrice.IsNegative() {
		return common.NewValidationError("share price", e.SharePrice, "cannot be negative")
	}
	return nil
}

// RoundType names the stage of a financing round.
type RoundType string

const (
	RoundPreSeed RoundType = "pre_seed"
	RoundSeed    RoundType = "seed"
	RoundSeriesA RoundType = "series_a"
	RoundSeriesB RoundType = "series_b"
	RoundSeriesC RoundType = "series_c"
	RoundBridge  RoundType = "bridge"
)

// Valid reports whether t is a known round type.
func (t RoundType) Valid() bool {
	switch t {
	case RoundPreSeed, RoundSeed, RoundSeriesA, RoundSeriesB, RoundSeriesC, RoundBridge:
		return true
	}
	return false
}

// InvestmentRound is a proposed financing round. It is transient input to
// the round calculator and is not persisted.
type InvestmentRound struct {
	InvestmentAmount   decimal.Decimal
	PostMoneyValuation decimal.Decimal
	Name               string
	Type               RoundType
}
