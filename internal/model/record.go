package model

import (
	"time"
)

// Availability values commonly reported by platform adapters. Adapters may
// emit free-form strings; these constants cover the statuses the analyzers
// recognize when computing in-stock rates.
const (
	AvailabilityInStock    = "In Stock"
	AvailabilityAvailable  = "Available"
	AvailabilityOutOfStock = "Out of Stock"
	AvailabilityPreorder   = "Preorder"
	AvailabilityUnknown    = "Unknown"
)

// ProductRecord is one observed listing on one platform at one point in time.
// Records are immutable after construction: a new price observation is a new
// record, never an update. (platform, product_id) identifies the listing's
// snapshot series.
type ProductRecord struct {
	Platform     string    `json:"platform" csv:"platform"`
	ProductID    string    `json:"product_id" csv:"product_id"`
	Name         string    `json:"name" csv:"name"`
	Price        float64   `json:"price" csv:"price"`
	Currency     string    `json:"currency" csv:"currency"`
	Availability string    `json:"availability" csv:"availability"`
	URL          string    `json:"url" csv:"url"`
	ImageURL     string    `json:"image_url,omitempty" csv:"image_url,omitempty"`
	Rating       *float64  `json:"rating,omitempty" csv:"rating,omitempty"`
	ReviewCount  *int      `json:"review_count,omitempty" csv:"review_count,omitempty"`
	Seller       string    `json:"seller,omitempty" csv:"seller,omitempty"`
	Category     string    `json:"category,omitempty" csv:"category,omitempty"`
	Brand        string    `json:"brand,omitempty" csv:"brand,omitempty"`
	Description  string    `json:"description,omitempty" csv:"description,omitempty"`
	Timestamp    time.Time `json:"timestamp" csv:"timestamp"`
}

// NewProductRecord constructs a record with the capture timestamp defaulted
// to the current time.
func NewProductRecord(platform, productID, name string, price float64, currency string) ProductRecord {
	return ProductRecord{
		Platform:  platform,
		ProductID: productID,
		Name:      name,
		Price:     price,
		Currency:  currency,
		Timestamp: time.Now().UTC(),
	}
}

// HasPrice reports whether the record carries a usable price. Zero means
// "unknown/unavailable" by convention.
func (r ProductRecord) HasPrice() bool {
	return r.Price > 0
}

// HasRating reports whether a rating was captured for the record.
func (r ProductRecord) HasRating() bool {
	return r.Rating != nil
}

// RatingValue returns the rating or 0 when absent.
func (r ProductRecord) RatingValue() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// Valid reports whether the record satisfies the minimal integrity
// constraints: identity fields present and a non-negative price.
func (r ProductRecord) Valid() bool {
	if r.Platform == "" || r.ProductID == "" || r.Name == "" {
		return false
	}
	return r.Price >= 0
}

// PriceSpread summarizes price variation inside a match group. Only members
// with a known price contribute.
type PriceSpread struct {
	MinPrice              float64 `json:"min_price"`
	MaxPrice              float64 `json:"max_price"`
	Difference            float64 `json:"price_difference"`
	DifferencePercent     float64 `json:"price_difference_percent"`
	CheapestPlatform      string  `json:"cheapest_platform"`
	MostExpensivePlatform string  `json:"most_expensive_platform"`
}

// RatingSpread summarizes rating variation inside a match group.
type RatingSpread struct {
	MinRating            float64 `json:"min_rating"`
	MaxRating            float64 `json:"max_rating"`
	AvgRating            float64 `json:"avg_rating"`
	HighestRatedPlatform string  `json:"highest_rated_platform"`
}

// PricePoint is one historical price observation for a tracked product,
// as loaded from the price history store.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// MatchGroup is a cluster of records from at least two distinct platforms
// judged to reference the same underlying product. Groups are produced per
// analysis run and carry no cross-run identity.
type MatchGroup struct {
	ProductName   string          `json:"product_name"`
	Platforms     []string        `json:"platforms"`
	PlatformCount int             `json:"platform_count"`
	Members       []ProductRecord `json:"products"`
	PriceSpread   *PriceSpread    `json:"price_analysis,omitempty"`
	RatingSpread  *RatingSpread   `json:"rating_analysis,omitempty"`
}
