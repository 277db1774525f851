package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pricelens/pricewatch/internal/model"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY,
	platform     TEXT NOT NULL,
	product_id   TEXT NOT NULL,
	name         TEXT NOT NULL,
	price        REAL NOT NULL,
	currency     TEXT NOT NULL,
	availability TEXT,
	url          TEXT,
	image_url    TEXT,
	rating       REAL,
	review_count INTEGER,
	seller       TEXT,
	category     TEXT,
	brand        TEXT,
	description  TEXT,
	captured_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS price_history (
	id          TEXT PRIMARY KEY,
	platform    TEXT NOT NULL,
	product_id  TEXT NOT NULL,
	price       REAL NOT NULL,
	captured_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS search_history (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	platforms    TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	searched_at  DATETIME NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_platform_product ON products(platform, product_id);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
CREATE INDEX IF NOT EXISTS idx_price_history_listing ON price_history(platform, product_id, captured_at);
CREATE INDEX IF NOT EXISTS idx_price_history_captured_at ON price_history(captured_at);
CREATE INDEX IF NOT EXISTS idx_search_history_searched_at ON search_history(searched_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecords upserts listings and appends their price observations.
// Repeat observations of a listing replace the previous products row;
// records with a zero price still land in products but produce no
// history row.
func (s *SQLiteStore) SaveRecords(ctx context.Context, records []model.ProductRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	insertProduct, err := tx.PrepareContext(ctx,
		`INSERT INTO products (id, platform, product_id, name, price, currency, availability, url, image_url,
			rating, review_count, seller, category, brand, description, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(platform, product_id) DO UPDATE SET
			name = excluded.name, price = excluded.price, currency = excluded.currency,
			availability = excluded.availability, url = excluded.url, image_url = excluded.image_url,
			rating = excluded.rating, review_count = excluded.review_count, seller = excluded.seller,
			category = excluded.category, brand = excluded.brand, description = excluded.description,
			captured_at = excluded.captured_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert product")
	}
	defer insertProduct.Close()

	insertHistory, err := tx.PrepareContext(ctx,
		`INSERT INTO price_history (id, platform, product_id, price, captured_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert history")
	}
	defer insertHistory.Close()

	saved := 0
	for _, r := range records {
		captured := r.Timestamp
		if captured.IsZero() {
			captured = time.Now().UTC()
		}
		_, err := insertProduct.ExecContext(ctx,
			uuid.New().String(), r.Platform, r.ProductID, r.Name, r.Price, r.Currency,
			r.Availability, r.URL, r.ImageURL, r.Rating, r.ReviewCount,
			r.Seller, r.Category, r.Brand, r.Description, captured)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert product %s/%s", r.Platform, r.ProductID)
		}
		if r.HasPrice() {
			_, err = insertHistory.ExecContext(ctx,
				uuid.New().String(), r.Platform, r.ProductID, r.Price, captured)
			if err != nil {
				return 0, eris.Wrapf(err, "sqlite: insert history %s/%s", r.Platform, r.ProductID)
			}
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return saved, nil
}

// RecordsByName returns the most recently captured listings whose name
// matches the SQL LIKE pattern.
func (s *SQLiteStore) RecordsByName(ctx context.Context, namePattern string, limit int) ([]model.ProductRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT platform, product_id, name, price, currency, availability, url, image_url,
			rating, review_count, seller, category, brand, description, captured_at
		 FROM products WHERE name LIKE ? ORDER BY captured_at DESC LIMIT ?`,
		namePattern, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query products by name")
	}
	defer rows.Close()

	var out []model.ProductRecord
	for rows.Next() {
		var r model.ProductRecord
		var availability, url, imageURL, seller, category, brand, description sql.NullString
		err := rows.Scan(&r.Platform, &r.ProductID, &r.Name, &r.Price, &r.Currency,
			&availability, &url, &imageURL, &r.Rating, &r.ReviewCount,
			&seller, &category, &brand, &description, &r.Timestamp)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		r.Availability = availability.String
		r.URL = url.String
		r.ImageURL = imageURL.String
		r.Seller = seller.String
		r.Category = category.String
		r.Brand = brand.String
		r.Description = description.String
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate products")
}

// PriceHistory returns the newest price observations for one listing,
// oldest first so trend analysis can consume them directly.
func (s *SQLiteStore) PriceHistory(ctx context.Context, platform, productID string, limit int) ([]model.PricePoint, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT price, captured_at FROM (
			SELECT price, captured_at FROM price_history
			WHERE platform = ? AND product_id = ?
			ORDER BY captured_at DESC LIMIT ?
		 ) ORDER BY captured_at ASC`,
		platform, productID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query price history")
	}
	defer rows.Close()

	var out []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.Price, &p.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price point")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate price history")
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// DeleteHistoryBefore prunes price observations captured before cutoff.
func (s *SQLiteStore) DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM price_history WHERE captured_at < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete history")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

// LogSearch appends one row to the search log.
func (s *SQLiteStore) LogSearch(ctx context.Context, query string, platforms []string, resultCount int) error {
	platformsJSON, err := json.Marshal(platforms)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal platforms")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_history (id, query, platforms, result_count, searched_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), query, string(platformsJSON), resultCount, time.Now().UTC())
	return eris.Wrap(err, "sqlite: insert search log")
}

// RecentSearches returns the newest search log entries, newest first.
func (s *SQLiteStore) RecentSearches(ctx context.Context, limit int) ([]SearchEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, platforms, result_count, searched_at
		 FROM search_history ORDER BY searched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query search log")
	}
	defer rows.Close()

	var out []SearchEntry
	for rows.Next() {
		var e SearchEntry
		var platformsJSON string
		if err := rows.Scan(&e.ID, &e.Query, &platformsJSON, &e.ResultCount, &e.SearchedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search entry")
		}
		if err := json.Unmarshal([]byte(platformsJSON), &e.Platforms); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal platforms")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate search log")
}
