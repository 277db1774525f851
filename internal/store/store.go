// Package store persists collected listings, their price history, and the
// search log. SQLite is the default backend; Postgres is available for
// shared deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pricelens/pricewatch/internal/model"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("store: not found")

// SearchEntry is one logged search run.
type SearchEntry struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Platforms   []string  `json:"platforms"`
	ResultCount int       `json:"result_count"`
	SearchedAt  time.Time `json:"searched_at"`
}

// Store is the persistence interface shared by the SQLite and Postgres
// backends.
type Store interface {
	// Listings
	SaveRecords(ctx context.Context, records []model.ProductRecord) (int, error)
	RecordsByName(ctx context.Context, namePattern string, limit int) ([]model.ProductRecord, error)

	// Price history
	PriceHistory(ctx context.Context, platform, productID string, limit int) ([]model.PricePoint, error)
	DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Search log
	LogSearch(ctx context.Context, query string, platforms []string, resultCount int) error
	RecentSearches(ctx context.Context, limit int) ([]SearchEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
