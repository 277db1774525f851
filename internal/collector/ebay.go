package collector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/pricewatch/internal/model"
)

// EBay scrapes ebay.com search results.
type EBay struct {
	BaseURL string
}

// NewEBay returns the ebay.com adapter.
func NewEBay() *EBay {
	return &EBay{BaseURL: "https://www.ebay.com"}
}

func (e *EBay) Name() string { return "ebay" }

func (e *EBay) SearchURL(query string, page int) string {
	return fmt.Sprintf("%s/sch/i.html?_nkw=%s&_pgn=%d", e.BaseURL, url.QueryEscape(query), page)
}

func (e *EBay) Parse(doc *goquery.Document) ([]model.ProductRecord, error) {
	var out []model.ProductRecord
	doc.Find("li.s-item").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(".s-item__title").First().Text())
		// The first tile is often a "Shop on eBay" placeholder.
		if name == "" || strings.EqualFold(name, "shop on ebay") {
			return
		}

		rec := model.NewProductRecord(e.Name(), itemID(s), name,
			parsePrice(s.Find(".s-item__price").First().Text()), "USD")
		if href, ok := s.Find(".s-item__link").First().Attr("href"); ok {
			rec.URL = href
		}
		rec.ReviewCount = parseReviewCount(s.Find(".s-item__reviews-count").First().Text())
		rec.Seller = strings.TrimSpace(s.Find(".s-item__seller-info-text").First().Text())
		if src, ok := s.Find(".s-item__image-img").First().Attr("src"); ok {
			rec.ImageURL = src
		}
		rec.Availability = availabilityFromPrice(rec.Price)
		out = append(out, rec)
	})
	return out, nil
}

// itemID pulls the numeric listing id from the item link.
func itemID(s *goquery.Selection) string {
	href, ok := s.Find(".s-item__link").First().Attr("href")
	if !ok {
		return ""
	}
	parts := strings.Split(strings.SplitN(href, "?", 2)[0], "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
