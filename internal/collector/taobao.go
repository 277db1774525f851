package collector

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/pricewatch/internal/model"
)

// Taobao scrapes taobao.com search results.
type Taobao struct {
	BaseURL string
}

// NewTaobao returns the taobao.com adapter.
func NewTaobao() *Taobao {
	return &Taobao{BaseURL: "https://s.taobao.com"}
}

func (t *Taobao) Name() string { return "taobao" }

func (t *Taobao) SearchURL(query string, page int) string {
	// taobao offsets results by 44 per page.
	return fmt.Sprintf("%s/search?q=%s&s=%d", t.BaseURL, url.QueryEscape(query), (page-1)*44)
}

func (t *Taobao) Parse(doc *goquery.Document) ([]model.ProductRecord, error) {
	var out []model.ProductRecord
	doc.Find("div.item").Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(".title a").First().Text())
		if name == "" {
			return
		}
		nid, _ := s.Attr("data-nid")

		price := parsePrice(s.Find(".price strong").First().Text())
		if price == 0 {
			price = freeTextPrice(s)
		}
		rec := model.NewProductRecord(t.Name(), nid, name, price, "CNY")
		if href, ok := s.Find(".title a").First().Attr("href"); ok {
			rec.URL = schemeRelative(href)
		}
		rec.Seller = strings.TrimSpace(s.Find(".shopname").First().Text())
		rec.ReviewCount = parseReviewCount(s.Find(".deal-cnt").First().Text())
		rec.Availability = availabilityFromPrice(rec.Price)
		out = append(out, rec)
	})
	return out, nil
}
