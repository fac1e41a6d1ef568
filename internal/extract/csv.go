package extract

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Source column headers. The export is header-addressed; column order is
// irrelevant and unknown columns are ignored.
const (
	ColOrderID      = "Order ID"
	ColOrderDate    = "Order Date"
	ColShipDate     = "Ship Date"
	ColShipMode     = "Ship Mode"
	ColCustomerID   = "Customer ID"
	ColCustomerName = "Customer Name"
	ColSegment      = "Segment"
	ColCountry      = "Country"
	ColCity         = "City"
	ColState        = "State"
	ColPostalCode   = "Postal Code"
	ColRegion       = "Region"
	ColProductID    = "Product ID"
	ColCategory     = "Category"
	ColSubCategory  = "Sub-Category"
	ColProductName  = "Product Name"
	ColSales        = "Sales"
	ColQuantity     = "Quantity"
	ColDiscount     = "Discount"
	ColProfit       = "Profit"
)

// ReadFile reads a Superstore export into raw records. The export ships
// latin-1 encoded, so bytes are transcoded before parsing. Returns the
// header columns actually present so the validator can judge structure.
func ReadFile(path string) ([]domain.RawRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return Read(f)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses the export from r. A leading UTF-8 byte order mark is
// dropped before transcoding; latin-1 would otherwise mangle it.
func Read(r io.Reader) ([]domain.RawRecord, []string, error) {
	buffered := bufio.NewReader(r)
	if lead, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
		if _, err := buffered.Discard(len(utf8BOM)); err != nil {
			return nil, nil, fmt.Errorf("read header: %w", err)
		}
	}

	reader := csv.NewReader(transform.NewReader(buffered, charmap.ISO8859_1.NewDecoder()))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		index[name] = i
		columns = append(columns, name)
	}

	field := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []domain.RawRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read line %d: %w", line+1, err)
		}
		line++
		records = append(records, domain.RawRecord{
			Line:         line,
			OrderID:      field(row, ColOrderID),
			OrderDate:    field(row, ColOrderDate),
			ShipDate:     field(row, ColShipDate),
			ShipMode:     field(row, ColShipMode),
			CustomerID:   field(row, ColCustomerID),
			CustomerName: field(row, ColCustomerName),
			Segment:      field(row, ColSegment),
			Country:      field(row, ColCountry),
			City:         field(row, ColCity),
			State:        field(row, ColState),
			PostalCode:   field(row, ColPostalCode),
			Region:       field(row, ColRegion),
			ProductID:    field(row, ColProductID),
			Category:     field(row, ColCategory),
			SubCategory:  field(row, ColSubCategory),
			ProductName:  field(row, ColProductName),
			Sales:        field(row, ColSales),
			Quantity:     field(row, ColQuantity),
			Discount:     field(row, ColDiscount),
			Profit:       field(row, ColProfit),
		})
	}
	return records, columns, nil
}
