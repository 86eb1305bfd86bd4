package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/runway/internal/common"
	"github.com/Veraticus/runway/internal/model"
)

// SaveHolder creates or updates a cap table entry. Derived fields are not stored.
func (s *SQLiteStorage) SaveHolder(ctx context.Context, holder *model.CapTableEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveHolder(ctx, s.db, holder)
}

func saveHolder(ctx context.Context, q querier, holder *model.CapTableEntry) error {
	if holder == nil {
		return fmt.Errorf("%w: holder", ErrNilParameter)
	}
	if err := holder.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO cap_table (id, name, holder_type, shares_owned, share_class, share_price)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			holder_type = excluded.holder_type,
			shares_owned = excluded.shares_owned,
			share_class = excluded.share_class,
			share_price = excluded.share_price,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := q.ExecContext(ctx, query,
		holder.ID, holder.Name, holder.Type, holder.SharesOwned, holder.ShareClass, holder.SharePrice.String(),
	); err != nil {
		return fmt.Errorf("failed to save holder %q: %w", holder.ID, err)
	}
	return nil
}

// GetHolders returns the cap table entries as stored, ordered by shares owned.
func (s *SQLiteStorage) GetHolders(ctx context.Context) ([]model.CapTableEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, holder_type, shares_owned, share_class, share_price
		FROM cap_table
		ORDER BY shares_owned DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cap table: %w", err)
	}
	defer rows.Close()

	var holders []model.CapTableEntry
	for rows.Next() {
		var h model.CapTableEntry
		var price string
		if err := rows.Scan(&h.ID, &h.Name, &h.Type, &h.SharesOwned, &h.ShareClass, &price); err != nil {
			return nil, fmt.Errorf("failed to scan holder: %w", err)
		}
		if h.SharePrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("failed to parse share price of holder %q: %w", h.ID, err)
		}
		holders = append(holders, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cap table: %w", err)
	}
	return holders, nil
}

// DeleteHolder removes a cap table entry.
func (s *SQLiteStorage) DeleteHolder(ctx context.Context, id model.HolderID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(string(id), "holder id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM cap_table WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete holder %q: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return common.NewNotFoundError("holder", string(id))
	}
	return nil
}
