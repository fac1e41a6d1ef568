package domain

import "time"

// DimCustomer is one customer dimension row, keyed by the surrogate
// customer_key with a unique natural key on customer_id.
type DimCustomer struct {
	CustomerKey  int64  `gorm:"column:customer_key;primaryKey" json:"customer_key"`
	CustomerID   string `gorm:"column:customer_id;not null;uniqueIndex:ux_dim_customer_customer_id" json:"customer_id"`
	CustomerName string `gorm:"column:customer_name;not null" json:"customer_name"`
	Segment      string `gorm:"column:segment;not null" json:"segment"`
}

func (DimCustomer) TableName() string { return "dim_customer" }

type DimProduct struct {
	ProductKey  int64  `gorm:"column:product_key;primaryKey" json:"product_key"`
	ProductID   string `gorm:"column:product_id;not null;uniqueIndex:ux_dim_product_product_id" json:"product_id"`
	ProductName string `gorm:"column:product_name;not null" json:"product_name"`
	Category    string `gorm:"column:category;not null" json:"category"`
	SubCategory string `gorm:"column:sub_category;not null" json:"sub_category"`
}

func (DimProduct) TableName() string { return "dim_product" }

// DimLocation's natural key is (postal_code, city), matching the
// warehouse uniqueness constraint.
type DimLocation struct {
	LocationKey int64  `gorm:"column:location_key;primaryKey" json:"location_key"`
	PostalCode  string `gorm:"column:postal_code;uniqueIndex:ux_dim_location_postal_city" json:"postal_code"`
	City        string `gorm:"column:city;not null;uniqueIndex:ux_dim_location_postal_city" json:"city"`
	State       string `gorm:"column:state;not null" json:"state"`
	Region      string `gorm:"column:region;not null" json:"region"`
	Country     string `gorm:"column:country;not null" json:"country"`
}

func (DimLocation) TableName() string { return "dim_location" }

// DimDate attributes are pure functions of FullDate, computed once by the
// dimension builder. Day numbering is Monday=0; weekend is Saturday/Sunday.
type DimDate struct {
	DateKey   int64     `gorm:"column:date_key;primaryKey" json:"date_key"`
	FullDate  time.Time `gorm:"column:full_date;not null;uniqueIndex:ux_dim_date_full_date" json:"full_date"`
	Year      int       `gorm:"column:year;not null" json:"year"`
	Quarter   int       `gorm:"column:quarter;not null" json:"quarter"`
	Month     int       `gorm:"column:month;not null" json:"month"`
	MonthName string    `gorm:"column:month_name;not null" json:"month_name"`
	Week      int       `gorm:"column:week;not null" json:"week"`
	DayOfWeek int       `gorm:"column:day_of_week;not null" json:"day_of_week"`
	DayName   string    `gorm:"column:day_name;not null" json:"day_name"`
	IsWeekend bool      `gorm:"column:is_weekend;not null" json:"is_weekend"`
}

func (DimDate) TableName() string { return "dim_date" }

// FactOrder is one validated, deduplicated order line. Every *_key column
// must resolve to a dimension row written earlier in the same transaction.
// BatchID ties the row to the pipeline run that loaded it.
type FactOrder struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	OrderID      string    `gorm:"column:order_id;not null;index:ix_fact_orders_order_id" json:"order_id"`
	OrderDateKey int64     `gorm:"column:order_date_key;not null" json:"order_date_key"`
	ShipDateKey  int64     `gorm:"column:ship_date_key;not null" json:"ship_date_key"`
	CustomerKey  int64     `gorm:"column:customer_key;not null" json:"customer_key"`
	ProductKey   int64     `gorm:"column:product_key;not null" json:"product_key"`
	LocationKey  int64     `gorm:"column:location_key;not null" json:"location_key"`
	Sales        float64   `gorm:"column:sales;not null" json:"sales"`
	Quantity     int       `gorm:"column:quantity;not null" json:"quantity"`
	Discount     float64   `gorm:"column:discount;not null" json:"discount"`
	Profit       float64   `gorm:"column:profit;not null" json:"profit"`
	ShipMode     string    `gorm:"column:ship_mode;not null" json:"ship_mode"`
	BatchID      string    `gorm:"column:batch_id;not null;index:ix_fact_orders_batch_id" json:"batch_id"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (FactOrder) TableName() string { return "fact_orders" }

// LocationKeyOf identifies a location row by its natural key.
type LocationKeyOf struct {
	PostalCode string
	City       string
}

// Aggregates are the reconciliation totals computed over one fact batch.
type Aggregates struct {
	Sales    float64
	Profit   float64
	Quantity int64
	Orders   int64
}

// Counts are warehouse row counts for the run report.
type Counts struct {
	Customers int64
	Products  int64
	Locations int64
	Dates     int64
	Facts     int64
}
