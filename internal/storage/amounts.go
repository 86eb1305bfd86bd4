package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
)

// SaveAmounts upserts a batch of period amounts in a single transaction.
// Nothing is written when any record is rejected.
func (s *SQLiteStorage) SaveAmounts(ctx context.Context, records []model.AmountRecord) (err error) {
	if err = validateContext(ctx); err != nil {
		return err
	}
	if err = validateRecords(records); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = saveAmounts(ctx, tx, records); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit amounts: %w", err)
	}

	slog.Debug("saved period amounts", "count", len(records))
	return nil
}

func saveAmounts(ctx context.Context, q querier, records []model.AmountRecord) error {
	years := make(map[model.DatasetID]int)

	query := `
		INSERT INTO period_amounts (subcategory_id, dataset_id, fiscal_year, month, amount)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subcategory_id, dataset_id, month) DO UPDATE SET
			amount = excluded.amount,
			fiscal_year = excluded.fiscal_year,
			updated_at = CURRENT_TIMESTAMP`

	for i, rec := range records {
		year, ok := years[rec.DatasetID]
		if !ok {
			err := q.QueryRowContext(ctx,
				`SELECT fiscal_year FROM datasets WHERE id = ?`, rec.DatasetID,
			).Scan(&year)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("record at index %d: %w", i, common.NewNotFoundError("dataset", string(rec.DatasetID)))
			}
			if err != nil {
				return fmt.Errorf("failed to look up dataset %q: %w", rec.DatasetID, err)
			}
			years[rec.DatasetID] = year
		}
		if rec.FiscalYear != year {
			return fmt.Errorf("record at index %d: %w", i,
				common.NewValidationError("fiscal year", rec.FiscalYear,
					fmt.Sprintf("does not match dataset %q (%d)", rec.DatasetID, year)))
		}

		var exists int
		err := q.QueryRowContext(ctx,
			`SELECT 1 FROM subcategories WHERE id = ?`, rec.SubcategoryID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("record at index %d: %w", i, common.NewNotFoundError("subcategory", string(rec.SubcategoryID)))
		}
		if err != nil {
			return fmt.Errorf("failed to look up subcategory %q: %w", rec.SubcategoryID, err)
		}

		if _, err := q.ExecContext(ctx, query,
			rec.SubcategoryID, rec.DatasetID, rec.FiscalYear, int(rec.Month), rec.Amount.String(),
		); err != nil {
			return fmt.Errorf("failed to save amount at index %d: %w", i, err)
		}
	}
	return nil
}

// GetAmounts returns every stored amount of a dataset.
func (s *SQLiteStorage) GetAmounts(ctx context.Context, dataset model.DatasetID) ([]model.AmountRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(string(dataset), "dataset id"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT subcategory_id, dataset_id, fiscal_year, month, amount
		FROM period_amounts
		WHERE dataset_id = ?
		ORDER BY subcategory_id, month`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer rows.Close()

	var records []model.AmountRecord
	for rows.Next() {
		var rec model.AmountRecord
		var month int
		var amount string
		if err := rows.Scan(&rec.SubcategoryID, &rec.DatasetID, &rec.FiscalYear, &month, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan amount: %w", err)
		}
		rec.Month = model.Month(month)
		rec.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating amounts: %w", err)
	}
	return records, nil
}
