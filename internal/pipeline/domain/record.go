package domain

import "time"

// RawRecord is one source line item exactly as read from the export.
// Every field is kept as raw text; typing happens in the validator so a
// malformed value surfaces as a violation, not a read failure.
type RawRecord struct {
	Line int

	OrderID      string
	OrderDate    string
	ShipDate     string
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	City         string
	State        string
	PostalCode   string
	Region       string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        string
	Quantity     string
	Discount     string
	Profit       string
}

// Record is a typed line item that passed validation. Invariants:
// Quantity > 0, Discount in [0,1], Sales >= 0, ShipDate >= OrderDate.
type Record struct {
	Line int

	OrderID      string
	OrderDate    time.Time
	ShipDate     time.Time
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	City         string
	State        string
	PostalCode   string
	Region       string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        float64
	Quantity     int
	Discount     float64
	Profit       float64
}

// Violation is one per-row business-rule failure.
type Violation struct {
	Line  int    `json:"line"`
	Rule  string `json:"rule"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Rule names used in violations and the run report.
const (
	RuleMissingField   = "missing_field"
	RuleBadNumber      = "unparseable_number"
	RuleBadDate        = "unparseable_date"
	RuleQuantity       = "quantity_not_positive"
	RuleDiscountRange  = "discount_out_of_range"
	RuleNegativeSales  = "negative_sales"
	RuleShipBeforeOrd  = "ship_date_before_order_date"
	RuleSegmentDomain  = "segment_not_allowed"
	RuleRegionDomain   = "region_not_allowed"
	RuleCategoryDomain = "category_not_allowed"
)
