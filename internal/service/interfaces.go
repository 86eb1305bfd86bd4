// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/runway/internal/hierarchy"
	"github.com/Veraticus/runway/internal/model"
	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/variance"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Hierarchy definition
	SaveSection(ctx context.Context, section *model.Section) error
	SaveCategory(ctx context.Context, category *model.Category) error
	SaveSubcategory(ctx context.Context, subcategory *model.Subcategory) error
	GetSections(ctx context.Context) ([]model.Section, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetSubcategories(ctx context.Context) ([]model.Subcategory, error)

	// Dataset operations
	SaveDataset(ctx context.Context, dataset *model.Dataset) error
	GetDataset(ctx context.Context, id model.DatasetID) (*model.Dataset, error)
	GetDatasets(ctx context.Context) ([]model.Dataset, error)

	// Period amounts
	SaveAmounts(ctx context.Context, records []model.AmountRecord) error
	GetAmounts(ctx context.Context, dataset model.DatasetID) ([]model.AmountRecord, error)

	// Cap table
	SaveHolder(ctx context.Context, holder *model.CapTableEntry) error
	GetHolders(ctx context.Context) ([]model.CapTableEntry, error)
	DeleteHolder(ctx context.Context, id model.HolderID) error

	// SaveHierarchy writes a whole tree with its datasets and amounts atomically.
	SaveHierarchy(ctx context.Context, tree *hierarchy.Model) error
	// LoadHierarchy assembles the tree plus every dataset of the fiscal year.
	LoadHierarchy(ctx context.Context, fiscalYear int) (*hierarchy.Model, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error

	SaveSection(ctx context.Context, section *model.Section) error
	SaveCategory(ctx context.Context, category *model.Category) error
	SaveSubcategory(ctx context.Context, subcategory *model.Subcategory) error
	SaveDataset(ctx context.Context, dataset *model.Dataset) error
	SaveAmounts(ctx context.Context, records []model.AmountRecord) error
	SaveHolder(ctx context.Context, holder *model.CapTableEntry) error
}

// ReportWriter exports computed reports to an external destination.
type ReportWriter interface {
	WriteBudget(ctx context.Context, report *rollup.Report) error
	WriteVariance(ctx context.Context, report *variance.Report) error
}
