package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/db"
	"github.com/pricelens/pricewatch/internal/model"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries prepared on each new connection for
// the hot store operations.
var preparedStatements = map[string]string{
	"get_history": `SELECT price, captured_at FROM (
		SELECT price, captured_at FROM price_history
		WHERE platform = $1 AND product_id = $2
		ORDER BY captured_at DESC LIMIT $3
	) h ORDER BY captured_at ASC`,
	"insert_search":   `INSERT INTO search_history (id, query, platforms, result_count, searched_at) VALUES ($1, $2, $3, $4, $5)`,
	"recent_searches": `SELECT id, query, platforms, result_count, searched_at FROM search_history ORDER BY searched_at DESC LIMIT $1`,
	"prune_history":   `DELETE FROM price_history WHERE captured_at < $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	platform     TEXT NOT NULL,
	product_id   TEXT NOT NULL,
	name         TEXT NOT NULL,
	price        DOUBLE PRECISION NOT NULL,
	currency     TEXT NOT NULL,
	availability TEXT,
	url          TEXT,
	image_url    TEXT,
	rating       DOUBLE PRECISION,
	review_count INTEGER,
	seller       TEXT,
	category     TEXT,
	brand        TEXT,
	description  TEXT,
	captured_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS price_history (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	platform    TEXT NOT NULL,
	product_id  TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_history (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query        TEXT NOT NULL,
	platforms    JSONB NOT NULL,
	result_count INTEGER NOT NULL,
	searched_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_products_platform_product ON products(platform, product_id);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
CREATE INDEX IF NOT EXISTS idx_price_history_listing ON price_history(platform, product_id, captured_at);
CREATE INDEX IF NOT EXISTS idx_price_history_captured_at ON price_history(captured_at);
CREATE INDEX IF NOT EXISTS idx_search_history_searched_at ON search_history(searched_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// productUpsert merges a collection run into the products table. Repeat
// observations of a listing replace the previous row; the original id
// survives the merge.
var productUpsert = db.UpsertConfig{
	Table: "products",
	Columns: []string{
		"id", "platform", "product_id", "name", "price", "currency",
		"availability", "url", "image_url", "rating", "review_count",
		"seller", "category", "brand", "description", "captured_at",
	},
	ConflictKeys: []string{"platform", "product_id"},
	UpdateCols: []string{
		"name", "price", "currency", "availability", "url", "image_url",
		"rating", "review_count", "seller", "category", "brand",
		"description", "captured_at",
	},
}

// SaveRecords upserts listings in bulk and appends one history row per
// priced record.
func (s *PostgresStore) SaveRecords(ctx context.Context, records []model.ProductRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// One products row per listing; a batch observing the same listing
	// twice keeps the last observation. ON CONFLICT cannot touch a row
	// twice in one statement.
	productRows := make([][]any, 0, len(records))
	rowIdx := make(map[string]int, len(records))
	for _, r := range records {
		captured := r.Timestamp
		if captured.IsZero() {
			captured = time.Now().UTC()
		}
		row := []any{
			uuid.New().String(), r.Platform, r.ProductID, r.Name, r.Price, r.Currency,
			r.Availability, r.URL, r.ImageURL, r.Rating, r.ReviewCount,
			r.Seller, r.Category, r.Brand, r.Description, captured,
		}
		key := r.Platform + "\x00" + r.ProductID
		if i, ok := rowIdx[key]; ok {
			productRows[i] = row
			continue
		}
		rowIdx[key] = len(productRows)
		productRows = append(productRows, row)
	}
	if _, err := db.BulkUpsert(ctx, s.pool, productUpsert, productRows); err != nil {
		return 0, err
	}

	historyRows := make([][]any, 0, len(records))
	for _, r := range records {
		if !r.HasPrice() {
			continue
		}
		captured := r.Timestamp
		if captured.IsZero() {
			captured = time.Now().UTC()
		}
		historyRows = append(historyRows, []any{
			uuid.New().String(), r.Platform, r.ProductID, r.Price, captured,
		})
	}
	if _, err := db.CopyFrom(ctx, s.pool, "price_history",
		[]string{"id", "platform", "product_id", "price", "captured_at"}, historyRows); err != nil {
		return 0, err
	}
	return len(records), nil
}

// RecordsByName returns the most recently captured listings whose name
// matches the SQL LIKE pattern.
func (s *PostgresStore) RecordsByName(ctx context.Context, namePattern string, limit int) ([]model.ProductRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT platform, product_id, name, price, currency, availability, url, image_url,
			rating, review_count, seller, category, brand, description, captured_at
		 FROM products WHERE name LIKE $1 ORDER BY captured_at DESC LIMIT $2`,
		namePattern, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query products by name")
	}
	defer rows.Close()

	var out []model.ProductRecord
	for rows.Next() {
		var r model.ProductRecord
		var availability, url, imageURL, seller, category, brand, description *string
		err := rows.Scan(&r.Platform, &r.ProductID, &r.Name, &r.Price, &r.Currency,
			&availability, &url, &imageURL, &r.Rating, &r.ReviewCount,
			&seller, &category, &brand, &description, &r.Timestamp)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		r.Availability = deref(availability)
		r.URL = deref(url)
		r.ImageURL = deref(imageURL)
		r.Seller = deref(seller)
		r.Category = deref(category)
		r.Brand = deref(brand)
		r.Description = deref(description)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate products")
}

// PriceHistory returns the newest price observations for one listing,
// oldest first.
func (s *PostgresStore) PriceHistory(ctx context.Context, platform, productID string, limit int) ([]model.PricePoint, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, "get_history", platform, productID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query price history")
	}
	defer rows.Close()

	var out []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.Price, &p.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price point")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate price history")
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// DeleteHistoryBefore prunes price observations captured before cutoff.
func (s *PostgresStore) DeleteHistoryBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "prune_history", cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete history")
	}
	return tag.RowsAffected(), nil
}

// LogSearch appends one row to the search log.
func (s *PostgresStore) LogSearch(ctx context.Context, query string, platforms []string, resultCount int) error {
	_, err := s.pool.Exec(ctx, "insert_search",
		uuid.New().String(), query, platforms, resultCount, time.Now().UTC())
	return eris.Wrap(err, "postgres: insert search log")
}

// RecentSearches returns the newest search log entries, newest first.
func (s *PostgresStore) RecentSearches(ctx context.Context, limit int) ([]SearchEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, "recent_searches", limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query search log")
	}
	defer rows.Close()

	var out []SearchEntry
	for rows.Next() {
		var e SearchEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.Platforms, &e.ResultCount, &e.SearchedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search entry")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate search log")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
