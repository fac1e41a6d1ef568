package cleanse

import (
	"fmt"
	"strings"
	"time"

	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Cleanser normalizes join keys and removes exact duplicate line items.
type Cleanser struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Cleanser {
	return &Cleanser{log: log.Named("cleanse")}
}

// Run normalizes every record then drops records identical across the full
// field set. The first occurrence in input order survives, keeping reruns
// reproducible.
func (c *Cleanser) Run(records []domain.Record) ([]domain.Record, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.Record, 0, len(records))
	removed := 0

	for _, rec := range records {
		rec = normalize(rec)
		key := fingerprint(rec)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	c.log.Info("cleansing finished",
		zap.Int("records", len(records)),
		zap.Int("duplicates_removed", removed),
	)
	return out, removed
}

// normalize adjusts whitespace and casing on join keys only, so identical
// real-world entities are not split across dimension rows. Measure and
// descriptive fields are left untouched.
func normalize(rec domain.Record) domain.Record {
	rec.OrderID = strings.TrimSpace(rec.OrderID)
	rec.CustomerID = strings.TrimSpace(rec.CustomerID)
	rec.CustomerName = strings.TrimSpace(rec.CustomerName)
	rec.Segment = strings.TrimSpace(rec.Segment)
	rec.ProductID = strings.TrimSpace(rec.ProductID)
	rec.ProductName = strings.TrimSpace(rec.ProductName)
	rec.Category = strings.TrimSpace(rec.Category)
	rec.SubCategory = strings.TrimSpace(rec.SubCategory)
	rec.ShipMode = strings.TrimSpace(rec.ShipMode)
	rec.Country = strings.TrimSpace(rec.Country)
	rec.Region = strings.TrimSpace(rec.Region)

	rec.City = titleCaser.String(strings.ToLower(strings.TrimSpace(rec.City)))
	rec.State = titleCaser.String(strings.ToLower(strings.TrimSpace(rec.State)))
	rec.PostalCode = normalizePostal(rec.PostalCode)
	return rec
}

// normalizePostal canonicalizes postal codes exported as floats ("10024.0").
func normalizePostal(code string) string {
	code = strings.TrimSpace(code)
	code = strings.TrimSuffix(code, ".0")
	if strings.EqualFold(code, "nan") {
		return ""
	}
	return code
}

const sep = "\x1f"

// fingerprint covers the full field set, not just the keys.
func fingerprint(rec domain.Record) string {
	return strings.Join([]string{
		rec.OrderID,
		rec.OrderDate.Format(time.DateOnly),
		rec.ShipDate.Format(time.DateOnly),
		rec.ShipMode,
		rec.CustomerID,
		rec.CustomerName,
		rec.Segment,
		rec.Country,
		rec.City,
		rec.State,
		rec.PostalCode,
		rec.Region,
		rec.ProductID,
		rec.Category,
		rec.SubCategory,
		rec.ProductName,
		fmt.Sprintf("%v%s%d%s%v%s%v", rec.Sales, sep, rec.Quantity, sep, rec.Discount, sep, rec.Profit),
	}, sep)
}
