// Package collector retrieves product listings from e-commerce platforms.
// Each platform adapter knows its search URL shape and result markup; the
// shared client handles rate limiting, retries, and circuit breaking.
package collector

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/textnorm"
)

// DefaultLimit caps how many records one search collects per platform.
const DefaultLimit = 20

// Platform is one e-commerce site adapter. Adapters are stateless; all
// I/O goes through the Collector's client.
type Platform interface {
	// Name is the platform key recorded on collected listings.
	Name() string

	// SearchURL builds the search results URL for a query and 1-based page.
	SearchURL(query string, page int) string

	// Parse extracts listings from a search results document.
	Parse(doc *goquery.Document) ([]model.ProductRecord, error)
}

// Collector runs searches against one platform.
type Collector struct {
	client   *Client
	platform Platform
}

// NewCollector binds a platform adapter to a client.
func NewCollector(client *Client, platform Platform) *Collector {
	return &Collector{client: client, platform: platform}
}

// Platform returns the bound adapter.
func (c *Collector) Platform() Platform { return c.platform }

// Search collects up to limit listings for query, paging until the
// platform stops returning results.
func (c *Collector) Search(ctx context.Context, query string, limit int) ([]model.ProductRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, eris.New("collector: empty search query")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var out []model.ProductRecord
	for page := 1; len(out) < limit; page++ {
		doc, err := c.client.GetDocument(ctx, c.platform.SearchURL(query, page))
		if err != nil {
			if len(out) > 0 {
				zap.L().Warn("search page fetch failed, returning partial results",
					zap.String("platform", c.platform.Name()),
					zap.Int("page", page),
					zap.Error(err))
				break
			}
			return nil, eris.Wrapf(err, "collector: search %s", c.platform.Name())
		}

		records, err := c.platform.Parse(doc)
		if err != nil {
			return nil, eris.Wrapf(err, "collector: parse %s results", c.platform.Name())
		}
		if len(records) == 0 {
			break
		}
		out = append(out, records...)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	zap.L().Debug("search complete",
		zap.String("platform", c.platform.Name()),
		zap.String("query", query),
		zap.Int("records", len(out)))
	return out, nil
}

// parsePrice extracts a price from listing text like "$1,299.99" or
// "¥8999". Returns 0 when no amount is present.
func parsePrice(text string) float64 {
	var b strings.Builder
	seenDot := false
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot && b.Len() > 0:
			seenDot = true
			b.WriteRune(r)
		case r == ',':
			// thousands separator
		case b.Len() > 0:
			if v, err := strconv.ParseFloat(b.String(), 64); err == nil {
				return v
			}
			return 0
		}
	}
	if b.Len() == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

// freeTextPrice scans the full text of a listing block for a currency-marked
// amount. CJK storefronts sometimes put the price in promo copy instead of
// the price node, so this is the fallback when the dedicated selector comes
// up empty.
func freeTextPrice(s *goquery.Selection) float64 {
	prices := textnorm.ExtractPrices(s.Text())
	if len(prices) == 0 {
		return 0
	}
	return prices[0]
}

// parseRating extracts a 0-5 rating from text like "4.5 out of 5 stars".
func parseRating(text string) *float64 {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "分"), 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

// parseReviewCount extracts an integer review count from text like
// "1,234 ratings" or "(567)".
func parseReviewCount(text string) *int {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != ',' && b.Len() > 0 {
			break
		}
	}
	if b.Len() == 0 {
		return nil
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return nil
	}
	return &n
}
