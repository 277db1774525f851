package collector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/pricewatch/internal/model"
)

// Walmart scrapes walmart.com search results.
type Walmart struct {
	BaseURL string
}

// NewWalmart returns the walmart.com adapter.
func NewWalmart() *Walmart {
	return &Walmart{BaseURL: "https://www.walmart.com"}
}

func (w *Walmart) Name() string { return "walmart" }

func (w *Walmart) SearchURL(query string, page int) string {
	return fmt.Sprintf("%s/search?q=%s&page=%d", w.BaseURL, url.QueryEscape(query), page)
}

func (w *Walmart) Parse(doc *goquery.Document) ([]model.ProductRecord, error) {
	var out []model.ProductRecord
	doc.Find("div[data-item-id]").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(`span[data-automation-id="product-title"]`).First().Text())
		if name == "" {
			return
		}
		id, _ := s.Attr("data-item-id")

		rec := model.NewProductRecord(w.Name(), id, name,
			parsePrice(s.Find(`div[data-automation-id="product-price"]`).First().Text()), "USD")
		if href, ok := s.Find("a").First().Attr("href"); ok {
			rec.URL = absoluteURL(w.BaseURL, href)
		}
		rec.Rating = parseRating(s.Find(`span[data-automation-id="product-rating"]`).First().AttrOr("aria-label", ""))
		rec.ReviewCount = parseReviewCount(s.Find(`span[data-automation-id="product-review-count"]`).First().Text())
		rec.Availability = availabilityFromPrice(rec.Price)
		out = append(out, rec)
	})
	return out, nil
}
