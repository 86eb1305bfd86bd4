package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
)

// SaveDataset creates or updates a dataset.
func (s *SQLiteStorage) SaveDataset(ctx context.Context, dataset *model.Dataset) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveDataset(ctx, s.db, dataset)
}

func saveDataset(ctx context.Context, q querier, dataset *model.Dataset) error {
	if dataset == nil {
		return fmt.Errorf("%w: dataset", ErrNilParameter)
	}
	if err := dataset.Validate(); err != nil {
		return err
	}
	if dataset.Kind == model.DatasetSandbox {
		return common.NewValidationError("dataset kind", dataset.Kind, "sandboxes are not persisted")
	}

	query := `
		INSERT INTO datasets (id, name, kind, fiscal_year)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			fiscal_year = excluded.fiscal_year`

	if _, err := q.ExecContext(ctx, query, dataset.ID, dataset.Name, dataset.Kind, dataset.FiscalYear); err != nil {
		return fmt.Errorf("failed to save dataset %q: %w", dataset.ID, err)
	}
	return nil
}

// GetDataset retrieves a dataset by id.
func (s *SQLiteStorage) GetDataset(ctx context.Context, id model.DatasetID) (*model.Dataset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(string(id), "dataset id"); err != nil {
		return nil, err
	}

	var ds model.Dataset
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, fiscal_year FROM datasets WHERE id = ?`, id,
	).Scan(&ds.ID, &ds.Name, &ds.Kind, &ds.FiscalYear)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewNotFoundError("dataset", string(id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset %q: %w", id, err)
	}
	return &ds, nil
}

// GetDatasets returns all datasets ordered by fiscal year.
func (s *SQLiteStorage) GetDatasets(ctx context.Context) ([]model.Dataset, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, fiscal_year
		FROM datasets
		ORDER BY fiscal_year, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	var datasets []model.Dataset
	for rows.Next() {
		var ds model.Dataset
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Kind, &ds.FiscalYear); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}
	return datasets, nil
}
