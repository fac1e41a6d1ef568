package repository

import (
	"context"
	"time"

	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const insertBatchSize = 500

func (r *repo) UpsertCustomers(ctx context.Context, db *gorm.DB, rows []domain.DimCustomer) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, insertBatchSize).Error
}

func (r *repo) UpsertProducts(ctx context.Context, db *gorm.DB, rows []domain.DimProduct) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, insertBatchSize).Error
}

func (r *repo) UpsertLocations(ctx context.Context, db *gorm.DB, rows []domain.DimLocation) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "postal_code"}, {Name: "city"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, insertBatchSize).Error
}

func (r *repo) UpsertDates(ctx context.Context, db *gorm.DB, rows []domain.DimDate) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "full_date"}},
			DoNothing: true,
		}).
		CreateInBatches(rows, insertBatchSize).Error
}

func (r *repo) CustomerKeys(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	var rows []domain.DimCustomer
	if err := db.WithContext(ctx).
		Select("customer_key", "customer_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make(map[string]int64, len(rows))
	for _, row := range rows {
		keys[row.CustomerID] = row.CustomerKey
	}
	return keys, nil
}

func (r *repo) ProductKeys(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	var rows []domain.DimProduct
	if err := db.WithContext(ctx).
		Select("product_key", "product_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make(map[string]int64, len(rows))
	for _, row := range rows {
		keys[row.ProductID] = row.ProductKey
	}
	return keys, nil
}

func (r *repo) LocationKeys(ctx context.Context, db *gorm.DB) (map[domain.LocationKeyOf]int64, error) {
	var rows []domain.DimLocation
	if err := db.WithContext(ctx).
		Select("location_key", "postal_code", "city").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make(map[domain.LocationKeyOf]int64, len(rows))
	for _, row := range rows {
		keys[domain.LocationKeyOf{PostalCode: row.PostalCode, City: row.City}] = row.LocationKey
	}
	return keys, nil
}

func (r *repo) DateKeys(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	var rows []domain.DimDate
	if err := db.WithContext(ctx).
		Select("date_key", "full_date").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	keys := make(map[string]int64, len(rows))
	for _, row := range rows {
		keys[row.FullDate.UTC().Format(time.DateOnly)] = row.DateKey
	}
	return keys, nil
}

func (r *repo) InsertFacts(ctx context.Context, db *gorm.DB, rows []domain.FactOrder) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error
}

func (r *repo) ResetFacts(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Exec(`DELETE FROM fact_orders`).Error
}

func (r *repo) Aggregates(ctx context.Context, db *gorm.DB, batchID string) (domain.Aggregates, error) {
	var agg struct {
		Sales    float64
		Profit   float64
		Quantity int64
		Orders   int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(sales), 0)         AS sales,
		        COALESCE(SUM(profit), 0)        AS profit,
		        COALESCE(SUM(quantity), 0)      AS quantity,
		        COUNT(DISTINCT order_id)        AS orders
		 FROM fact_orders WHERE batch_id = ?`,
		batchID,
	).Scan(&agg).Error
	if err != nil {
		return domain.Aggregates{}, err
	}
	return domain.Aggregates{
		Sales:    agg.Sales,
		Profit:   agg.Profit,
		Quantity: agg.Quantity,
		Orders:   agg.Orders,
	}, nil
}

func (r *repo) Counts(ctx context.Context, db *gorm.DB) (domain.Counts, error) {
	var counts domain.Counts
	tables := []struct {
		model any
		dst   *int64
	}{
		{&domain.DimCustomer{}, &counts.Customers},
		{&domain.DimProduct{}, &counts.Products},
		{&domain.DimLocation{}, &counts.Locations},
		{&domain.DimDate{}, &counts.Dates},
		{&domain.FactOrder{}, &counts.Facts},
	}
	for _, t := range tables {
		if err := db.WithContext(ctx).Model(t.model).Count(t.dst).Error; err != nil {
			return domain.Counts{}, err
		}
	}
	return counts, nil
}
