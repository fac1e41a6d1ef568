package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/config"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/extract"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	"go.uber.org/zap"
)

// requiredColumns must all be present in the source header; a missing one
// is a structural failure, not a row violation.
var requiredColumns = []string{
	extract.ColOrderID,
	extract.ColOrderDate,
	extract.ColShipDate,
	extract.ColShipMode,
	extract.ColCustomerID,
	extract.ColCustomerName,
	extract.ColSegment,
	extract.ColCountry,
	extract.ColCity,
	extract.ColState,
	extract.ColPostalCode,
	extract.ColRegion,
	extract.ColProductID,
	extract.ColCategory,
	extract.ColSubCategory,
	extract.ColProductName,
	extract.ColSales,
	extract.ColQuantity,
	extract.ColDiscount,
	extract.ColProfit,
}

var dateLayouts = []string{"1/2/2006", "2006-01-02", "2006/01/02"}

// Validator enforces column structure and per-row business rules.
type Validator struct {
	rules config.QualityRules
	log   *zap.Logger
}

func New(rules config.QualityRules, log *zap.Logger) *Validator {
	return &Validator{rules: rules, log: log.Named("validate")}
}

// Check returns the typed records that satisfy every rule plus the full
// violation list. Violating rows never reach the returned set. The error
// is non-nil for structural failures, for any violation of a
// zero-tolerance rule, or for a violation count above the configured
// threshold; each aborts the run before any write.
func (v *Validator) Check(rows []domain.RawRecord, columns []string) ([]domain.Record, []domain.Violation, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	for _, col := range requiredColumns {
		if !present[col] {
			return nil, nil, fmt.Errorf("%w: required column %q absent", domain.ErrStructural, col)
		}
	}

	// Parse failures per typed column; a column that fails on every row is
	// a structural problem with the export, not row noise.
	parseFailures := map[string]int{}

	accepted := make([]domain.Record, 0, len(rows))
	var violations []domain.Violation

	for _, raw := range rows {
		rec, rowViolations := v.checkRow(raw, parseFailures)
		if len(rowViolations) > 0 {
			violations = append(violations, rowViolations...)
			continue
		}
		accepted = append(accepted, rec)
	}

	if len(rows) > 0 {
		for _, col := range []string{extract.ColOrderDate, extract.ColShipDate, extract.ColSales, extract.ColQuantity, extract.ColDiscount, extract.ColProfit} {
			if parseFailures[col] == len(rows) {
				return nil, nil, fmt.Errorf("%w: column %q unparseable across the whole input", domain.ErrStructural, col)
			}
		}
	}

	for _, viol := range violations {
		if v.rules.ZeroTolerance(viol.Rule) {
			return nil, violations, fmt.Errorf("%w: rule %q tolerates no violations, first at line %d",
				domain.ErrBusinessRule, viol.Rule, viol.Line)
		}
	}

	if len(violations) > v.rules.MaxViolations {
		return nil, violations, fmt.Errorf("%w: %d violations, threshold %d",
			domain.ErrBusinessRule, len(violations), v.rules.MaxViolations)
	}

	v.log.Info("validation finished",
		zap.Int("rows", len(rows)),
		zap.Int("accepted", len(accepted)),
		zap.Int("violations", len(violations)),
	)
	return accepted, violations, nil
}

func (v *Validator) checkRow(raw domain.RawRecord, parseFailures map[string]int) (domain.Record, []domain.Violation) {
	var violations []domain.Violation
	reject := func(rule, field, value string) {
		violations = append(violations, domain.Violation{Line: raw.Line, Rule: rule, Field: field, Value: value})
	}

	required := []struct{ field, value string }{
		{extract.ColOrderID, raw.OrderID},
		{extract.ColShipMode, raw.ShipMode},
		{extract.ColCustomerID, raw.CustomerID},
		{extract.ColCustomerName, raw.CustomerName},
		{extract.ColSegment, raw.Segment},
		{extract.ColCountry, raw.Country},
		{extract.ColCity, raw.City},
		{extract.ColState, raw.State},
		{extract.ColRegion, raw.Region},
		{extract.ColProductID, raw.ProductID},
		{extract.ColCategory, raw.Category},
		{extract.ColSubCategory, raw.SubCategory},
		{extract.ColProductName, raw.ProductName},
	}
	for _, rf := range required {
		if strings.TrimSpace(rf.value) == "" {
			reject(domain.RuleMissingField, rf.field, rf.value)
		}
	}

	orderDate, err := parseDate(raw.OrderDate)
	if err != nil {
		parseFailures[extract.ColOrderDate]++
		reject(domain.RuleBadDate, extract.ColOrderDate, raw.OrderDate)
	}
	shipDate, err := parseDate(raw.ShipDate)
	if err != nil {
		parseFailures[extract.ColShipDate]++
		reject(domain.RuleBadDate, extract.ColShipDate, raw.ShipDate)
	}

	sales, err := parseFloat(raw.Sales)
	if err != nil {
		parseFailures[extract.ColSales]++
		reject(domain.RuleBadNumber, extract.ColSales, raw.Sales)
	}
	quantity, err := parseInt(raw.Quantity)
	if err != nil {
		parseFailures[extract.ColQuantity]++
		reject(domain.RuleBadNumber, extract.ColQuantity, raw.Quantity)
	}
	discount, err := parseFloat(raw.Discount)
	if err != nil {
		parseFailures[extract.ColDiscount]++
		reject(domain.RuleBadNumber, extract.ColDiscount, raw.Discount)
	}
	profit, err := parseFloat(raw.Profit)
	if err != nil {
		parseFailures[extract.ColProfit]++
		reject(domain.RuleBadNumber, extract.ColProfit, raw.Profit)
	}

	if len(violations) > 0 {
		return domain.Record{}, violations
	}

	if quantity <= 0 {
		reject(domain.RuleQuantity, extract.ColQuantity, raw.Quantity)
	}
	if discount < 0 || discount > 1 {
		reject(domain.RuleDiscountRange, extract.ColDiscount, raw.Discount)
	}
	if sales < 0 {
		reject(domain.RuleNegativeSales, extract.ColSales, raw.Sales)
	}
	if shipDate.Before(orderDate) {
		reject(domain.RuleShipBeforeOrd, extract.ColShipDate, raw.ShipDate)
	}
	if !v.rules.SegmentAllowed(strings.TrimSpace(raw.Segment)) {
		reject(domain.RuleSegmentDomain, extract.ColSegment, raw.Segment)
	}
	if !v.rules.RegionAllowed(strings.TrimSpace(raw.Region)) {
		reject(domain.RuleRegionDomain, extract.ColRegion, raw.Region)
	}
	if !v.rules.CategoryAllowed(strings.TrimSpace(raw.Category)) {
		reject(domain.RuleCategoryDomain, extract.ColCategory, raw.Category)
	}

	if len(violations) > 0 {
		return domain.Record{}, violations
	}

	return domain.Record{
		Line:         raw.Line,
		OrderID:      raw.OrderID,
		OrderDate:    orderDate,
		ShipDate:     shipDate,
		ShipMode:     raw.ShipMode,
		CustomerID:   raw.CustomerID,
		CustomerName: raw.CustomerName,
		Segment:      raw.Segment,
		Country:      raw.Country,
		City:         raw.City,
		State:        raw.State,
		PostalCode:   raw.PostalCode,
		Region:       raw.Region,
		ProductID:    raw.ProductID,
		Category:     raw.Category,
		SubCategory:  raw.SubCategory,
		ProductName:  raw.ProductName,
		Sales:        sales,
		Quantity:     quantity,
		Discount:     discount,
		Profit:       profit,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

func parseFloat(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func parseInt(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}
