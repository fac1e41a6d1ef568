package dimension

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(node, zap.NewNop())
}

func record(customerID, customerName, productID, city string, orderDate, shipDate time.Time) domain.Record {
	return domain.Record{
		OrderID:      "CA-1",
		OrderDate:    orderDate,
		ShipDate:     shipDate,
		ShipMode:     "First Class",
		CustomerID:   customerID,
		CustomerName: customerName,
		Segment:      "Consumer",
		Country:      "United States",
		City:         city,
		State:        "Kentucky",
		PostalCode:   "42420",
		Region:       "South",
		ProductID:    productID,
		Category:     "Furniture",
		SubCategory:  "Bookcases",
		ProductName:  "Bookcase",
		Sales:        100,
		Quantity:     1,
	}
}

func TestBuildFirstObservedWins(t *testing.T) {
	day := time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)
	records := []domain.Record{
		record("CG-12520", "Claire Gute", "P-1", "Henderson", day, day),
		record("CG-12520", "Claire G.", "P-1", "Henderson", day, day),
	}

	set := newBuilder(t).Build(records)
	require.Len(t, set.Customers, 1)
	assert.Equal(t, "Claire Gute", set.Customers[0].CustomerName)
	assert.Equal(t, 1, set.Conflicts["customer"])
}

func TestBuildSurrogateKeysIncreaseInFirstSeenOrder(t *testing.T) {
	day := time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)
	records := []domain.Record{
		record("C-1", "A", "P-1", "Henderson", day, day),
		record("C-2", "B", "P-2", "Austin", day, day),
		record("C-3", "C", "P-3", "Boston", day, day),
	}

	set := newBuilder(t).Build(records)
	require.Len(t, set.Customers, 3)
	assert.Less(t, set.Customers[0].CustomerKey, set.Customers[1].CustomerKey)
	assert.Less(t, set.Customers[1].CustomerKey, set.Customers[2].CustomerKey)
}

func TestBuildShipOnlyDateGetsRow(t *testing.T) {
	order := time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)
	ship := time.Date(2016, 11, 11, 0, 0, 0, 0, time.UTC)

	set := newBuilder(t).Build([]domain.Record{
		record("C-1", "A", "P-1", "Henderson", order, ship),
	})
	require.Len(t, set.Dates, 2)
	assert.Equal(t, order, set.Dates[0].FullDate)
	assert.Equal(t, ship, set.Dates[1].FullDate)
}

func TestBuildDateEnrolledOnce(t *testing.T) {
	day := time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)
	set := newBuilder(t).Build([]domain.Record{
		record("C-1", "A", "P-1", "Henderson", day, day),
		record("C-2", "B", "P-2", "Austin", day, day),
	})
	assert.Len(t, set.Dates, 1)
}

func TestBuildLocationKeyedByPostalAndCity(t *testing.T) {
	day := time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)
	first := record("C-1", "A", "P-1", "Henderson", day, day)
	second := record("C-2", "B", "P-2", "Henderson", day, day)
	second.PostalCode = "42421" // same city, different postal code

	set := newBuilder(t).Build([]domain.Record{first, second})
	assert.Len(t, set.Locations, 2)
}

func TestDateRowAttributes(t *testing.T) {
	// 2016-11-12 is a Saturday in ISO week 45.
	row := dateRow(1, time.Date(2016, 11, 12, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2016, row.Year)
	assert.Equal(t, 4, row.Quarter)
	assert.Equal(t, 11, row.Month)
	assert.Equal(t, "November", row.MonthName)
	assert.Equal(t, 45, row.Week)
	assert.Equal(t, 5, row.DayOfWeek)
	assert.Equal(t, "Saturday", row.DayName)
	assert.True(t, row.IsWeekend)

	monday := dateRow(2, time.Date(2016, 11, 7, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, monday.DayOfWeek)
	assert.False(t, monday.IsWeekend)
}
