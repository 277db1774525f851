package collector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/pricewatch/internal/model"
)

// JD scrapes jd.com search results.
type JD struct {
	BaseURL string
}

// NewJD returns the jd.com adapter.
func NewJD() *JD {
	return &JD{BaseURL: "https://search.jd.com"}
}

func (j *JD) Name() string { return "jd" }

func (j *JD) SearchURL(query string, page int) string {
	// jd paginates in half pages; page 1 maps to page=1, page 2 to page=3.
	return fmt.Sprintf("%s/Search?keyword=%s&page=%d", j.BaseURL, url.QueryEscape(query), page*2-1)
}

func (j *JD) Parse(doc *goquery.Document) ([]model.ProductRecord, error) {
	var out []model.ProductRecord
	doc.Find("li.gl-item").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(".p-name em").First().Text())
		if name == "" {
			return
		}
		sku, _ := s.Attr("data-sku")

		price := parsePrice(s.Find(".p-price i").First().Text())
		if price == 0 {
			price = freeTextPrice(s)
		}
		rec := model.NewProductRecord(j.Name(), sku, name, price, "CNY")
		if href, ok := s.Find(".p-name a").First().Attr("href"); ok {
			rec.URL = schemeRelative(href)
		}
		rec.ReviewCount = parseReviewCount(s.Find(".p-commit a").First().Text())
		rec.Seller = strings.TrimSpace(s.Find(".p-shop a").First().Text())
		rec.Availability = availabilityFromPrice(rec.Price)
		out = append(out, rec)
	})
	return out, nil
}

// schemeRelative completes protocol-relative hrefs the way jd and taobao
// emit them.
func schemeRelative(href string) string {
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
