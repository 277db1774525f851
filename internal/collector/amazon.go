package collector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/pricewatch/internal/model"
)

// Amazon scrapes amazon.com search results.
type Amazon struct {
	BaseURL string
}

// NewAmazon returns the amazon.com adapter.
func NewAmazon() *Amazon {
	return &Amazon{BaseURL: "https://www.amazon.com"}
}

func (a *Amazon) Name() string { return "amazon" }

func (a *Amazon) SearchURL(query string, page int) string {
	return fmt.Sprintf("%s/s?k=%s&page=%d", a.BaseURL, url.QueryEscape(query), page)
}

func (a *Amazon) Parse(doc *goquery.Document) ([]model.ProductRecord, error) {
	var out []model.ProductRecord
	doc.Find(`div[data-component-type="s-search-result"]`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("h2 a span").First().Text())
		if name == "" {
			return
		}
		asin, _ := s.Attr("data-asin")

		rec := model.NewProductRecord(a.Name(), asin, name,
			parsePrice(s.Find("span.a-price span.a-offscreen").First().Text()), "USD")
		if href, ok := s.Find("h2 a").First().Attr("href"); ok {
			rec.URL = absoluteURL(a.BaseURL, href)
		}
		rec.Rating = parseRating(s.Find("span.a-icon-alt").First().Text())
		rec.ReviewCount = parseReviewCount(s.Find("span.a-size-base.s-underline-text").First().Text())
		if src, ok := s.Find("img.s-image").First().Attr("src"); ok {
			rec.ImageURL = src
		}
		rec.Availability = availabilityFromPrice(rec.Price)
		out = append(out, rec)
	})
	return out, nil
}

// absoluteURL resolves listing hrefs against the adapter's base.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

func availabilityFromPrice(price float64) string {
	if price > 0 {
		return model.AvailabilityInStock
	}
	return model.AvailabilityUnknown
}
