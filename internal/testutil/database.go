// Package testutil provides database helpers for tests that need persisted plans.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/service"
	"github.com/Veraticus/runway/internal/storage"
	"github.com/Veraticus/runway/internal/testutil/fixtures"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	Tree    *hierarchy.Model
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database seeded with tree.
// A nil tree leaves the database empty.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		fixtures.NewBuilder(t).
//			WithScenarioAmounts().
//			MustBuild(),
//	)
func SetupTestDB(t *testing.T, tree *hierarchy.Model) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Tree: tree})
}

// SetupTestDBWithBuilder creates a test database from a fixtures builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b fixtures.Builder) fixtures.Builder {
//		return b.WithScenarioAmounts().WithAmount(fixtures.Salaries, fixtures.Budget, 2, "45")
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(fixtures.Builder) fixtures.Builder) *TestDB {
	t.Helper()

	builder := fixtures.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}
	return SetupTestDB(t, builder.MustBuild())
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Tree           *hierarchy.Model
	Holders        []model.CapTableEntry
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.Tree != nil {
		if err := store.SaveHierarchy(ctx, opts.Tree); err != nil {
			t.Fatalf("failed to seed hierarchy: %v", err)
		}
	}

	for i := range opts.Holders {
		if err := store.SaveHolder(ctx, &opts.Holders[i]); err != nil {
			t.Fatalf("failed to seed holder %q: %v", opts.Holders[i].ID, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Tree:    opts.Tree,
		t:       t,
	}
}

// MustLoad reads the persisted hierarchy for the fixture fiscal year or fails the test.
func (db *TestDB) MustLoad() *hierarchy.Model {
	db.t.Helper()
	tree, err := db.Storage.LoadHierarchy(context.Background(), fixtures.FiscalYear)
	if err != nil {
		db.t.Fatalf("failed to load hierarchy: %v", err)
	}
	return tree
}

// WithTransaction executes the given function within a database transaction.
// The transaction is always rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
