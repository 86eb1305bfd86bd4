package captable

import (
	"fmt"

	"github.com/Veraticus/runway/internal/model"
)

// RoundStep is one round of a multi-round projection.
type RoundStep struct {
	Round    model.InvestmentRound
	Result   RoundResult
	Dilution []DilutionImpact
}

// Projection is the result of applying rounds in sequence.
type Projection struct {
	Final *Table
	Steps []RoundStep
}

// ProjectRounds applies each round to the table left by the previous one.
// Each step's dilution values holders at that round's pre-money valuation,
// and the new investor of round N is added with id "round-N".
func ProjectRounds(t *Table, rounds []model.InvestmentRound) (*Projection, error) {
	p := &Projection{Final: t, Steps: make([]RoundStep, 0, len(rounds))}
	for i, r := range rounds {
		result, err := CalculateRoundFor(p.Final, r)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
		impacts, err := Dilution(p.Final, result, result.PreMoneyValuation)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}

		name := r.Name
		if name == "" {
			name = fmt.Sprintf("Round %d investor", i+1)
		}
		next, err := PostRoundTable(p.Final, result, model.CapTableEntry{
			ID:         model.HolderID(fmt.Sprintf("round-%d", i+1)),
			Name:       name,
			Type:       model.HolderInvestor,
			ShareClass: "preferred",
		})
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}

		p.Steps = append(p.Steps, RoundStep{Round: r, Result: result, Dilution: impacts})
		p.Final = next
	}
	return p, nil
}
