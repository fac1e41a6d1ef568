package fact

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	whdomain "github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/domain"
)

// KeyMaps are the authoritative natural-key to surrogate-key mappings read
// back from the warehouse after the dimension batches are written, so fact
// foreign keys always reference committed dimension rows.
type KeyMaps struct {
	Customers map[string]int64
	Products  map[string]int64
	Locations map[whdomain.LocationKeyOf]int64
	Dates     map[string]int64
}

// Builder maps each cleansed record onto one fact row.
type Builder struct {
	node *snowflake.Node
}

func New(node *snowflake.Node) *Builder {
	return &Builder{node: node}
}

// Build resolves every record's natural keys and emits the fact batch.
// A key missing from its dimension mapping indicates an upstream defect
// and fails the run; writing a dangling foreign key is never acceptable.
func (b *Builder) Build(records []domain.Record, keys KeyMaps, batchID string, loadedAt time.Time) ([]whdomain.FactOrder, error) {
	rows := make([]whdomain.FactOrder, 0, len(records))
	for _, rec := range records {
		customerKey, ok := keys.Customers[rec.CustomerID]
		if !ok {
			return nil, unresolved("customer", rec.CustomerID, rec.Line)
		}
		productKey, ok := keys.Products[rec.ProductID]
		if !ok {
			return nil, unresolved("product", rec.ProductID, rec.Line)
		}
		locationKey, ok := keys.Locations[whdomain.LocationKeyOf{PostalCode: rec.PostalCode, City: rec.City}]
		if !ok {
			return nil, unresolved("location", rec.PostalCode+"/"+rec.City, rec.Line)
		}
		orderDateKey, ok := keys.Dates[rec.OrderDate.Format(time.DateOnly)]
		if !ok {
			return nil, unresolved("date", rec.OrderDate.Format(time.DateOnly), rec.Line)
		}
		shipDateKey, ok := keys.Dates[rec.ShipDate.Format(time.DateOnly)]
		if !ok {
			return nil, unresolved("date", rec.ShipDate.Format(time.DateOnly), rec.Line)
		}

		rows = append(rows, whdomain.FactOrder{
			ID:           b.node.Generate().Int64(),
			OrderID:      rec.OrderID,
			OrderDateKey: orderDateKey,
			ShipDateKey:  shipDateKey,
			CustomerKey:  customerKey,
			ProductKey:   productKey,
			LocationKey:  locationKey,
			Sales:        rec.Sales,
			Quantity:     rec.Quantity,
			Discount:     rec.Discount,
			Profit:       rec.Profit,
			ShipMode:     rec.ShipMode,
			BatchID:      batchID,
			CreatedAt:    loadedAt,
		})
	}
	return rows, nil
}

func unresolved(dimension, naturalKey string, line int) error {
	return fmt.Errorf("%w: %s %q (line %d)", domain.ErrUnresolvedReference, dimension, naturalKey, line)
}
