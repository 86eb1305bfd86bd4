package model

import (
	"errors"
	"testing"

	"github.com/Veraticus/runway/internal/common"
	"github.com/shopspring/decimal"
)

func TestSection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		section Section
		wantErr bool
	}{
		{
			name:    "plain section",
			section: Section{ID: "revenue", Name: "Revenue", Order: 1},
		},
		{
			name: "calculated gross profit",
			section: Section{
				ID:           "gross_profit",
				Name:         "Gross Profit",
				IsCalculated: true,
				Calculation:  CalculationGrossProfit,
				Operands:     []SectionID{"revenue", "cogs"},
			},
		},
		{
			name:    "missing id",
			section: Section{Name: "Revenue"},
			wantErr: true,
			errMsg:  "invalid section id: is required",
		},
		{
			name:    "missing name",
			section: Section{ID: "revenue"},
			wantErr: true,
			errMsg:  "invalid section name revenue: is required",
		},
		{
			name:    "unknown kind",
			section: Section{ID: "x", Name: "X", IsCalculated: true, Calculation: "ebitda"},
			wantErr: true,
			errMsg:  "invalid calculation kind ebitda: is not recognized",
		},
		{
			name:    "kind without calculated flag",
			section: Section{ID: "x", Name: "X", Calculation: CalculationNetProfit},
			wantErr: true,
			errMsg:  "invalid section x: has a calculation kind but is not marked calculated",
		},
		{
			name:    "operands on plain section",
			section: Section{ID: "x", Name: "X", Operands: []SectionID{"a", "b"}},
			wantErr: true,
			errMsg:  "invalid section x: only calculated sections may declare operands",
		},
		{
			name:    "calculated without kind",
			section: Section{ID: "x", Name: "X", IsCalculated: true, Operands: []SectionID{"a", "b"}},
			wantErr: true,
			errMsg:  "invalid section x: calculated sections need a calculation kind",
		},
		{
			name:    "single operand",
			section: Section{ID: "x", Name: "X", IsCalculated: true, Calculation: CalculationGrossProfit, Operands: []SectionID{"a"}},
			wantErr: true,
			errMsg:  "invalid section x: calculated sections need at least two operand sections",
		},
		{
			name:    "self operand",
			section: Section{ID: "x", Name: "X", IsCalculated: true, Calculation: CalculationGrossProfit, Operands: []SectionID{"a", "x"}},
			wantErr: true,
			errMsg:  "invalid section x: cannot use itself as an operand",
		},
		{
			name:    "duplicate operand",
			section: Section{ID: "x", Name: "X", IsCalculated: true, Calculation: CalculationNetProfit, Operands: []SectionID{"a", "b", "a"}},
			wantErr: true,
			errMsg:  "invalid section x: lists operand a twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.section.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				if !errors.Is(err, common.ErrValidation) {
					t.Errorf("Validate() error = %v, want ErrValidation", err)
				}
				if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.errMsg)
				}
			}
		})
	}
}

func TestCategoryAndSubcategory_Validate(t *testing.T) {
	good := Category{ID: "sales", SectionID: "revenue", Name: "Sales"}
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	orphan := Category{ID: "sales", Name: "Sales"}
	if err := orphan.Validate(); err == nil {
		t.Error("expected error for category without section")
	}

	leaf := Subcategory{ID: "online", CategoryID: "sales", Name: "Online"}
	if err := leaf.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	unnamed := Subcategory{ID: "online", CategoryID: "sales"}
	if err := unnamed.Validate(); err == nil {
		t.Error("expected error for subcategory without name")
	}
}

func TestDataset_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dataset Dataset
		wantErr bool
	}{
		{name: "budget", dataset: Dataset{ID: "b25", Name: "Budget 2025", Kind: DatasetBudget, FiscalYear: 2025}},
		{name: "forecast", dataset: Dataset{ID: "f25", Name: "Forecast", Kind: DatasetForecast, FiscalYear: 2025}},
		{name: "unknown kind", dataset: Dataset{ID: "x", Name: "X", Kind: "plan", FiscalYear: 2025}, wantErr: true},
		{name: "zero year", dataset: Dataset{ID: "x", Name: "X", Kind: DatasetBudget}, wantErr: true},
		{name: "missing id", dataset: Dataset{Name: "X", Kind: DatasetBudget, FiscalYear: 2025}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dataset.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonth(t *testing.T) {
	if Month(0).Valid() || Month(13).Valid() {
		t.Error("months outside 1..12 must be invalid")
	}
	if got := Month(1).String(); got != "Jan" {
		t.Errorf("Month(1).String() = %q, want Jan", got)
	}
	if got := Month(12).Quarter(); got != 4 {
		t.Errorf("Month(12).Quarter() = %d, want 4", got)
	}
	if got := Month(4).Quarter(); got != 2 {
		t.Errorf("Month(4).Quarter() = %d, want 2", got)
	}
	if got := len(AllMonths()); got != MonthsPerYear {
		t.Errorf("AllMonths() returned %d months", got)
	}
	if err := ValidateQuarter(5); !errors.Is(err, common.ErrValidation) {
		t.Errorf("ValidateQuarter(5) = %v, want ErrValidation", err)
	}
}

func TestAmountRecord_Validate(t *testing.T) {
	rec := AmountRecord{SubcategoryID: "online", DatasetID: "b25", FiscalYear: 2025, Month: 3, Amount: decimal.NewFromInt(10)}
	if err := rec.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec.Month = 13
	if err := rec.Validate(); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected month validation error, got %v", err)
	}
}

func TestCapTableEntry_Validate(t *testing.T) {
	entry := CapTableEntry{ID: "alice", Name: "Alice", Type: HolderFounder, SharesOwned: 500000}
	if err := entry.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry.SharesOwned = -1
	if err := entry.Validate(); err == nil {
		t.Error("expected error for negative shares")
	}

	entry.SharesOwned = 1
	entry.Type = "partner"
	if err := entry.Validate(); err == nil {
		t.Error("expected error for unknown holder type")
	}

	if !RoundSeriesA.Valid() || RoundType("series_z").Valid() {
		t.Error("round type validity is wrong")
	}
}
