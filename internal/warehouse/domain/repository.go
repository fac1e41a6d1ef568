package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists and reads back the star schema. Callers pass the
// *gorm.DB so one transaction can span dimension and fact writes.
//
// Dimension upserts insert-if-absent on the natural key and never
// duplicate; facts are append-only.
type Repository interface {
	UpsertCustomers(ctx context.Context, db *gorm.DB, rows []DimCustomer) error
	UpsertProducts(ctx context.Context, db *gorm.DB, rows []DimProduct) error
	UpsertLocations(ctx context.Context, db *gorm.DB, rows []DimLocation) error
	UpsertDates(ctx context.Context, db *gorm.DB, rows []DimDate) error

	CustomerKeys(ctx context.Context, db *gorm.DB) (map[string]int64, error)
	ProductKeys(ctx context.Context, db *gorm.DB) (map[string]int64, error)
	LocationKeys(ctx context.Context, db *gorm.DB) (map[LocationKeyOf]int64, error)
	DateKeys(ctx context.Context, db *gorm.DB) (map[string]int64, error)

	InsertFacts(ctx context.Context, db *gorm.DB, rows []FactOrder) error
	ResetFacts(ctx context.Context, db *gorm.DB) error

	Aggregates(ctx context.Context, db *gorm.DB, batchID string) (Aggregates, error)
	Counts(ctx context.Context, db *gorm.DB) (Counts, error)
}
