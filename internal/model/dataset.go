package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/runway/internal/common"
	"github.com/shopspring/decimal"
)

// DatasetID identifies a named container of period amounts.
type DatasetID string

// DatasetKind classifies what a dataset's numbers mean.
type DatasetKind string

const (
	// DatasetBudget holds planned amounts.
	DatasetBudget DatasetKind = "budget"
	// DatasetForecast holds re-projected amounts.
	DatasetForecast DatasetKind = "forecast"
	// DatasetActual holds booked amounts.
	DatasetActual DatasetKind = "actual"
	// DatasetSandbox is an in-memory what-if overlay that is never persisted as such.
	DatasetSandbox DatasetKind = "sandbox"
)

// Valid reports whether k is a known dataset kind.
func (k DatasetKind) Valid() bool {
	switch k {
	case DatasetBudget, DatasetForecast, DatasetActual, DatasetSandbox:
		return true
	}
	return false
}

// Dataset is a named collection of monthly amounts for one fiscal year.
type Dataset struct {
	ID         DatasetID
	Name       string
	Kind       DatasetKind
	FiscalYear int
}

// Validate checks the dataset's fields.
func (d *Dataset) Validate() error {
	if strings.TrimSpace(string(d.ID)) == "" {
		return common.NewValidationError("dataset id", nil, "is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return common.NewValidationError("dataset name", d.ID, "is required")
	}
	if !d.Kind.Valid() {
		return common.NewValidationError("dataset kind", d.Kind, "is not recognized")
	}
	if d.FiscalYear < 1900 || d.FiscalYear > 9999 {
		return common.NewValidationError("fiscal year", d.FiscalYear, "must be between 1900 and 9999")
	}
	return nil
}

// MonthsPerYear is the number of period amounts a row has per fiscal year.
const MonthsPerYear = 12

// Month is a fiscal month, 1 through 12.
type Month int

// Valid reports whether m is within 1..12.
func (m Month) Valid() bool {
	return m >= 1 && m <= MonthsPerYear
}

// Quarter returns the fiscal quarter (1..4) the month falls in.
func (m Month) Quarter() int {
	return (int(m)-1)/3 + 1
}

// Index returns the zero-based array index of the month.
func (m Month) Index() int {
	return int(m) - 1
}

func (m Month) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return time.Month(m).String()[:3]
}

// AllMonths returns months 1 through 12 in order.
func AllMonths() []Month {
	months := make([]Month, MonthsPerYear)
	for i := range months {
		months[i] = Month(i + 1)
	}
	return months
}

// ValidateMonth returns a ValidationError when m is outside 1..12.
func ValidateMonth(m Month) error {
	if !m.Valid() {
		return common.NewValidationError("month", int(m), "must be between 1 and 12")
	}
	return nil
}

// ValidateQuarter returns a ValidationError when q is outside 1..4.
func ValidateQuarter(q int) error {
	if q < 1 || q > 4 {
		return common.NewValidationError("quarter", q, "must be between 1 and 4")
	}
	return nil
}

// AmountRecord is one entry of the period-amount input feed.
type AmountRecord struct {
	Amount        decimal.Decimal
	SubcategoryID SubcategoryID
	DatasetID     DatasetID
	FiscalYear    int
	Month         Month
}

// Validate checks the record's shape. Existence of the referenced rows is
// the hierarchy's concern.
func (r *AmountRecord) Validate() error {
	if strings.TrimSpace(string(r.SubcategoryID)) == "" {
		return common.NewValidationError("subcategory id", nil, "is required")
	}
	if strings.TrimSpace(string(r.DatasetID)) == "" {
		return common.NewValidationError("dataset id", nil, "is required")
	}
	if err := ValidateMonth(r.Month); err != nil {
		return err
	}
	if r.FiscalYear < 1900 || r.FiscalYear > 9999 {
		return common.NewValidationError("fiscal year", r.FiscalYear, "must be between 1900 and 9999")
	}
	return nil
}
