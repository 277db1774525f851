package model

import (
	"sort"
)

// Table is an in-memory batch of records handed to the analyzers. It is a
// read-only view: analyzers never mutate the underlying records.
type Table struct {
	Records []ProductRecord
}

// NewTable wraps a record slice.
func NewTable(records []ProductRecord) *Table {
	return &Table{Records: records}
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Validate checks the batch is non-empty and that every record carries the
// required identity and price columns.
func (t *Table) Validate() error {
	if t == nil || len(t.Records) == 0 {
		return &ValidationError{Reason: "empty record set"}
	}
	for i, r := range t.Records {
		if r.Platform == "" || r.Name == "" {
			return &ValidationError{Reason: "record missing platform or name", Index: i}
		}
		if r.Price < 0 {
			return &ValidationError{Reason: "negative price", Index: i}
		}
	}
	return nil
}

// ValidPrices returns the strictly positive prices in input order. Zero
// prices mean "unknown" and are excluded from all statistics.
func (t *Table) ValidPrices() []float64 {
	out := make([]float64, 0, len(t.Records))
	for _, r := range t.Records {
		if r.Price > 0 {
			out = append(out, r.Price)
		}
	}
	return out
}

// Platforms returns the distinct platform names in first-seen order.
func (t *Table) Platforms() []string {
	seen := make(map[string]bool, 8)
	var out []string
	for _, r := range t.Records {
		if !seen[r.Platform] {
			seen[r.Platform] = true
			out = append(out, r.Platform)
		}
	}
	return out
}

// ByPlatform groups records per platform, preserving input order within
// each group.
func (t *Table) ByPlatform() map[string][]ProductRecord {
	out := make(map[string][]ProductRecord, 8)
	for _, r := range t.Records {
		out[r.Platform] = append(out[r.Platform], r)
	}
	return out
}

// Ratings returns the present rating values in input order.
func (t *Table) Ratings() []float64 {
	var out []float64
	for _, r := range t.Records {
		if r.Rating != nil {
			out = append(out, *r.Rating)
		}
	}
	return out
}

// PriceRange returns the observed min and max over all prices, including
// zeros, matching what the metadata block reports. Returns (0, 0) for an
// empty table.
func (t *Table) PriceRange() (float64, float64) {
	if len(t.Records) == 0 {
		return 0, 0
	}
	min, max := t.Records[0].Price, t.Records[0].Price
	for _, r := range t.Records[1:] {
		if r.Price < min {
			min = r.Price
		}
		if r.Price > max {
			max = r.Price
		}
	}
	return min, max
}

// SortedValidPrices returns the valid prices in ascending order. The
// returned slice is a copy.
func (t *Table) SortedValidPrices() []float64 {
	prices := t.ValidPrices()
	sort.Float64s(prices)
	return prices
}
