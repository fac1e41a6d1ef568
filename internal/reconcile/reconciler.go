package reconcile

import (
	"math"

	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	whdomain "github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/domain"
)

// Metric names tracked by every run.
const (
	MetricTotalSales    = "total_sales"
	MetricTotalProfit   = "total_profit"
	MetricTotalQuantity = "total_quantity"
	MetricTotalOrders   = "total_orders"
)

// SourceTotals computes the reconciliation aggregates over the cleansed
// source set, the same figures the warehouse is asked to reproduce.
func SourceTotals(records []domain.Record) whdomain.Aggregates {
	var agg whdomain.Aggregates
	orders := make(map[string]struct{}, len(records))
	for _, rec := range records {
		agg.Sales += rec.Sales
		agg.Profit += rec.Profit
		agg.Quantity += int64(rec.Quantity)
		orders[rec.OrderID] = struct{}{}
	}
	agg.Orders = int64(len(orders))
	return agg
}

// Compare matches each metric within the relative tolerance. Tolerance
// absorbs float rounding from decimal conversions; zero-vs-zero matches
// trivially so an empty source reconciles as a pass.
func Compare(source, warehouse whdomain.Aggregates, tolerance float64) []domain.ReconciliationEntry {
	return []domain.ReconciliationEntry{
		entry(MetricTotalSales, source.Sales, warehouse.Sales, tolerance),
		entry(MetricTotalProfit, source.Profit, warehouse.Profit, tolerance),
		entry(MetricTotalQuantity, float64(source.Quantity), float64(warehouse.Quantity), tolerance),
		entry(MetricTotalOrders, float64(source.Orders), float64(warehouse.Orders), tolerance),
	}
}

func entry(metric string, source, warehouse, tolerance float64) domain.ReconciliationEntry {
	return domain.ReconciliationEntry{
		Metric:    metric,
		Source:    source,
		Warehouse: warehouse,
		Match:     withinTolerance(source, warehouse, tolerance),
	}
}

func withinTolerance(a, b, tolerance float64) bool {
	diff := math.Abs(a - b)
	if diff == 0 {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= tolerance*scale
}
