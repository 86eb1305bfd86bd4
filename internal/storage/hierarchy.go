package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
)

// SaveSection creates or updates a section.
func (s *SQLiteStorage) SaveSection(ctx context.Context, section *model.Section) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveSection(ctx, s.db, section)
}

func saveSection(ctx context.Context, q querier, section *model.Section) error {
	if section == nil {
		return fmt.Errorf("%w: section", ErrNilParameter)
	}
	if err := section.Validate(); err != nil {
		return err
	}

	operands := section.Operands
	if operands == nil {
		operands = []model.SectionID{}
	}
	operandsJSON, err := json.Marshal(operands)
	if err != nil {
		return fmt.Errorf("failed to marshal operands: %w", err)
	}

	query := `
		INSERT INTO sections (id, name, display_order, is_calculated, calculation_kind, operands)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			display_order = excluded.display_order,
			is_calculated = excluded.is_calculated,
			calculation_kind = excluded.calculation_kind,
			operands = excluded.operands`

	if _, err := q.ExecContext(ctx, query,
		section.ID, section.Name, section.Order, section.IsCalculated, section.Kind(), string(operandsJSON),
	); err != nil {
		return fmt.Errorf("failed to save section %q: %w", section.ID, err)
	}
	return nil
}

// SaveCategory creates or updates a category.
func (s *SQLiteStorage) SaveCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveCategory(ctx, s.db, category)
}

func saveCategory(ctx context.Context, q querier, category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := category.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO categories (id, section_id, name, display_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			section_id = excluded.section_id,
			name = excluded.name,
			display_order = excluded.display_order`

	if _, err := q.ExecContext(ctx, query, category.ID, category.SectionID, category.Name, category.Order); err != nil {
		return fmt.Errorf("failed to save category %q: %w", category.ID, err)
	}
	return nil
}

// SaveSubcategory creates or updates a subcategory.
func (s *SQLiteStorage) SaveSubcategory(ctx context.Context, subcategory *model.Subcategory) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveSubcategory(ctx, s.db, subcategory)
}

func saveSubcategory(ctx context.Context, q querier, subcategory *model.Subcategory) error {
	if subcategory == nil {
		return fmt.Errorf("%w: subcategory", ErrNilParameter)
	}
	if err := subcategory.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO subcategories (id, category_id, name, display_order)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			name = excluded.name,
			display_order = excluded.display_order`

	if _, err := q.ExecContext(ctx, query, subcategory.ID, subcategory.CategoryID, subcategory.Name, subcategory.Order); err != nil {
		return fmt.Errorf("failed to save subcategory %q: %w", subcategory.ID, err)
	}
	return nil
}

// GetSections returns all sections in display order.
func (s *SQLiteStorage) GetSections(ctx context.Context) ([]model.Section, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, display_order, is_calculated, calculation_kind, operands
		FROM sections
		ORDER BY display_order, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var sec model.Section
		var operandsJSON string
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.Order, &sec.IsCalculated, &sec.Calculation, &operandsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		if err := json.Unmarshal([]byte(operandsJSON), &sec.Operands); err != nil {
			return nil, fmt.Errorf("failed to unmarshal operands of section %q: %w", sec.ID, err)
		}
		if len(sec.Operands) == 0 {
			sec.Operands = nil
		}
		sections = append(sections, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sections: %w", err)
	}

	slog.Debug("retrieved sections", "count", len(sections))
	return sections, nil
}

// GetCategories returns all categories in display order.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, section_id, name, display_order
		FROM categories
		ORDER BY display_order, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.SectionID, &cat.Name, &cat.Order); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetSubcategories returns all subcategories in display order.
func (s *SQLiteStorage) GetSubcategories(ctx context.Context) ([]model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, category_id, name, display_order
		FROM subcategories
		ORDER BY display_order, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	defer rows.Close()

	var subcategories []model.Subcategory
	for rows.Next() {
		var sub model.Subcategory
		if err := rows.Scan(&sub.ID, &sub.CategoryID, &sub.Name, &sub.Order); err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		subcategories = append(subcategories, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subcategories: %w", err)
	}

	return subcategories, nil
}

// LoadHierarchy assembles the persisted tree together with every dataset
// of the fiscal year and their amounts.
func (s *SQLiteStorage) LoadHierarchy(ctx context.Context, fiscalYear int) (*hierarchy.Model, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	sections, err := s.GetSections(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	subcategories, err := s.GetSubcategories(ctx)
	if err != nil {
		return nil, err
	}
	datasets, err := s.GetDatasets(ctx)
	if err != nil {
		return nil, err
	}

	tree := hierarchy.New()
	for _, sec := range sections {
		if err := tree.AddSection(sec); err != nil {
			return nil, fmt.Errorf("failed to load section %q: %w", sec.ID, err)
		}
	}
	for _, cat := range categories {
		if err := tree.AddCategory(cat); err != nil {
			return nil, fmt.Errorf("failed to load category %q: %w", cat.ID, err)
		}
	}
	for _, sub := range subcategories {
		if err := tree.AddSubcategory(sub); err != nil {
			return nil, fmt.Errorf("failed to load subcategory %q: %w", sub.ID, err)
		}
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}

	loaded := 0
	for _, ds := range datasets {
		if ds.FiscalYear != fiscalYear {
			continue
		}
		if err := tree.AddDataset(ds); err != nil {
			return nil, fmt.Errorf("failed to load dataset %q: %w", ds.ID, err)
		}
		records, err := s.GetAmounts(ctx, ds.ID)
		if err != nil {
			return nil, err
		}
		if err := tree.Load(records); err != nil {
			return nil, fmt.Errorf("failed to load amounts of dataset %q: %w", ds.ID, err)
		}
		loaded++
	}
	slog.Debug("loaded hierarchy",
		"fiscal_year", fiscalYear,
		"sections", len(sections),
		"subcategories", len(subcategories),
		"datasets", loaded)
	return tree, nil
}

// SaveHierarchy persists every row, dataset and amount of a tree in one
// transaction.
func (s *SQLiteStorage) SaveHierarchy(ctx context.Context, tree *hierarchy.Model) (err error) {
	if err = validateContext(ctx); err != nil {
		return err
	}
	if tree == nil {
		return fmt.Errorf("%w: tree", ErrNilParameter)
	}
	if err = tree.Validate(); err != nil {
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

	sections := tree.Sections()
	for i := range sections {
		if err = saveSection(ctx, tx, &sections[i]); err != nil {
			return err
		}
	}
	for _, sec := range sections {
		categories := tree.Categories(sec.ID)
		for i := range categories {
			if err = saveCategory(ctx, tx, &categories[i]); err != nil {
				return err
			}
			subcategories := tree.Subcategories(categories[i].ID)
			for j := range subcategories {
				if err = saveSubcategory(ctx, tx, &subcategories[j]); err != nil {
					return err
				}
			}
		}
	}

	amounts := 0
	for _, ds := range tree.Datasets() {
		if err = saveDataset(ctx, tx, &ds); err != nil {
			return err
		}
		var records []model.AmountRecord
		if records, err = tree.Records(ds.ID); err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		if err = saveAmounts(ctx, tx, records); err != nil {
			return err
		}
		amounts += len(records)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hierarchy: %w", err)
	}

	slog.Info("saved hierarchy", "sections", len(sections), "amounts", amounts)
	return nil
}
