package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
)

// AmountColumns is the required header of an amounts feed, in any order.
var AmountColumns = []string{"subcategory", "dataset", "fiscal_year", "month", "amount"}

// ParseAmountsCSV reads an amounts feed. The first row must be a header
// naming AmountColumns; extra columns are ignored. Blank lines are skipped.
// Errors name the 1-based line of the offending row.
func ParseAmountsCSV(r io.Reader) ([]model.AmountRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, common.NewValidationError("amounts feed", nil, "is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range AmountColumns {
		if _, ok := index[col]; !ok {
			return nil, common.NewValidationError("amounts header", col, "column is missing")
		}
	}

	var records []model.AmountRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read amounts: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseAmountRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseAmountRow(row []string, index map[string]int) (model.AmountRecord, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	year, err := strconv.Atoi(field("fiscal_year"))
	if err != nil {
		return model.AmountRecord{}, common.NewValidationError("fiscal year", field("fiscal_year"), "is not a number")
	}
	month, err := strconv.Atoi(field("month"))
	if err != nil {
		return model.AmountRecord{}, common.NewValidationError("month", field("month"), "is not a number")
	}
	amount, err := decimal.NewFromString(field("amount"))
	if err != nil {
		return model.AmountRecord{}, common.NewValidationError("amount", field("amount"), "is not a decimal number")
	}

	rec := model.AmountRecord{
		SubcategoryID: model.SubcategoryID(field("subcategory")),
		DatasetID:     model.DatasetID(field("dataset")),
		FiscalYear:    year,
		Month:         model.Month(month),
		Amount:        amount,
	}
	if err := rec.Validate(); err != nil {
		return model.AmountRecord{}, err
	}
	return rec, nil
}

// WriteAmountsCSV writes records as an amounts feed with a header row.
func WriteAmountsCSV(w io.Writer, records []model.AmountRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(AmountColumns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write([]string{
			string(rec.SubcategoryID),
			string(rec.DatasetID),
			strconv.Itoa(rec.FiscalYear),
			strconv.Itoa(int(rec.Month)),
			rec.Amount.String(),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
