// Package analyzer turns collected product tables into analysis results:
// a comprehensive price report, a cross-platform comparison, and a price
// history trend report.
package analyzer

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/stats"
)

// bestDealCount is how many listings each deal list names.
const bestDealCount = 5

// Quality tier thresholds over the average rating.
const (
	ratingStrongThreshold = 4.0
	ratingMixedThreshold  = 3.0
)

// PriceAnalyzer produces the comprehensive price report over one collected
// table.
type PriceAnalyzer struct {
	engine *stats.Engine
}

// NewPriceAnalyzer returns a PriceAnalyzer backed by the given engine.
func NewPriceAnalyzer(engine *stats.Engine) *PriceAnalyzer {
	if engine == nil {
		engine = stats.NewEngine()
	}
	return &PriceAnalyzer{engine: engine}
}

// Analyze validates the table and assembles the full price report.
// Validation failures are returned as-is; any other failure is wrapped as
// an AnalyzerError.
func (a *PriceAnalyzer) Analyze(table *model.Table) (*model.AnalysisResult, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	prices := table.ValidPrices()
	if len(prices) == 0 {
		return nil, &model.ValidationError{Reason: "no records with a usable price"}
	}

	statsResult, err := a.engine.AnalyzeTable(table)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, &model.AnalyzerError{Op: "price analysis", Err: err}
	}

	minPrice, maxPrice := table.PriceRange()
	result := model.NewAnalysisResult(model.AnalysisTypeComprehensive, statsResult.Data, map[string]any{
		"total_records":  table.Len(),
		"priced_records": len(prices),
		"platforms":      table.Platforms(),
		"price_range":    map[string]any{"min": minPrice, "max": maxPrice},
	})
	result.Warnings = statsResult.Warnings

	result.Data["overview"] = overview(table)
	result.Data["by_platform"] = a.platformBreakdown(table)
	result.Data["price_brackets"] = PriceBrackets(prices)
	result.Data["best_deals"] = bestDeals(table.Records)
	attachOutlierRecords(result.Data, pricedRecords(table))
	result.Data["insights"] = a.insights(table, prices, result)
	result.Data["recommendations"] = a.recommendations(table, result)

	zap.L().Info("price analysis complete",
		zap.Int("records", table.Len()),
		zap.Int("priced", len(prices)),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

// platformBreakdown summarizes each platform's price column. Platforms
// whose column is too small for a summary report only their counts.
func (a *PriceAnalyzer) platformBreakdown(table *model.Table) map[string]any {
	out := map[string]any{}
	for platform, records := range table.ByPlatform() {
		sub := model.NewTable(records)
		prices := sub.ValidPrices()
		entry := map[string]any{
			"record_count": len(records),
			"priced_count": len(prices),
		}
		if summary, err := stats.Summarize(prices); err == nil {
			entry["mean"] = summary.Mean
			entry["median"] = summary.Median
			entry["min"] = summary.Min
			entry["max"] = summary.Max
			entry["std"] = summary.Std
		} else if len(prices) == 1 {
			entry["mean"] = prices[0]
			entry["median"] = prices[0]
			entry["min"] = prices[0]
			entry["max"] = prices[0]
		}
		out[platform] = entry
	}
	return out
}

// bracketWidth picks a histogram bucket width proportional to the price
// span.
func bracketWidth(span float64) float64 {
	switch {
	case span < 50:
		return 10
	case span < 200:
		return 25
	case span < 1000:
		return 100
	default:
		return 250
	}
}

// PriceBrackets buckets prices into fixed-width ranges keyed by a
// "low-high" label.
func PriceBrackets(prices []float64) map[string]int {
	if len(prices) == 0 {
		return map[string]int{}
	}
	minV, maxV := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minV {
			minV = p
		}
		if p > maxV {
			maxV = p
		}
	}
	width := bracketWidth(maxV - minV)

	out := map[string]int{}
	for _, p := range prices {
		lo := float64(int(p/width)) * width
		label := fmt.Sprintf("%.0f-%.0f", lo, lo+width)
		out[label]++
	}
	return out
}

// overview summarizes the batch shape: how many listings, where from, and
// the availability and rating pictures.
func overview(table *model.Table) map[string]any {
	availability := map[string]int{}
	for _, r := range table.Records {
		label := r.Availability
		if label == "" {
			label = model.AvailabilityUnknown
		}
		availability[label]++
	}

	out := map[string]any{
		"total_records":  table.Len(),
		"platform_count": len(table.Platforms()),
		"availability":   availability,
	}
	if ratings := table.Ratings(); len(ratings) > 0 {
		minR, maxR, sum := ratings[0], ratings[0], 0.0
		for _, v := range ratings {
			sum += v
			if v < minR {
				minR = v
			}
			if v > maxR {
				maxR = v
			}
		}
		out["ratings"] = map[string]any{
			"rated_count": len(ratings),
			"average":     sum / float64(len(ratings)),
			"min":         minR,
			"max":         maxR,
		}
	}
	return out
}

// pricedRecords returns the records with a usable price in input order,
// aligned with Table.ValidPrices.
func pricedRecords(table *model.Table) []model.ProductRecord {
	var out []model.ProductRecord
	for _, r := range table.Records {
		if r.HasPrice() {
			out = append(out, r)
		}
	}
	return out
}

// attachOutlierRecords joins flagged outlier indices back to the listings
// that produced them, so reports can name the records behind a spike.
// Indices refer to positions in the valid-price column.
func attachOutlierRecords(data map[string]any, priced []model.ProductRecord) {
	section, ok := data[stats.SectionOutliers].(map[string]any)
	if !ok {
		return
	}
	entries := []map[string]any{section}
	for _, v := range section {
		if sub, ok := v.(map[string]any); ok {
			entries = append(entries, sub)
		}
	}
	for _, entry := range entries {
		method, _ := entry["method"].(string)
		if method != stats.MethodIQR && method != stats.MethodZScore {
			continue
		}
		indices, ok := entry["indices"].([]any)
		if !ok {
			continue
		}
		var recs []map[string]any
		for _, iv := range indices {
			f, ok := iv.(float64)
			if !ok {
				continue
			}
			if i := int(f); i >= 0 && i < len(priced) {
				recs = append(recs, map[string]any{
					"name":     priced[i].Name,
					"platform": priced[i].Platform,
					"price":    priced[i].Price,
				})
			}
		}
		if len(recs) > 0 {
			entry["records"] = recs
		}
	}
}

// bestDeals assembles the three deal lists: cheapest listings, highest
// rated listings, and best value for money. Ties keep input order.
func bestDeals(records []model.ProductRecord) map[string]any {
	var priced, rated []model.ProductRecord
	maxPrice := 0.0
	for _, r := range records {
		if r.HasPrice() {
			priced = append(priced, r)
			if r.Price > maxPrice {
				maxPrice = r.Price
			}
		}
		if r.HasRating() {
			rated = append(rated, r)
		}
	}

	cheapest := append([]model.ProductRecord(nil), priced...)
	sort.SliceStable(cheapest, func(a, b int) bool { return cheapest[a].Price < cheapest[b].Price })

	sort.SliceStable(rated, func(a, b int) bool { return rated[a].RatingValue() > rated[b].RatingValue() })

	var valued []model.ProductRecord
	for _, r := range priced {
		if r.HasRating() {
			valued = append(valued, r)
		}
	}
	sort.SliceStable(valued, func(a, b int) bool {
		return valueScore(valued[a], maxPrice) > valueScore(valued[b], maxPrice)
	})

	value := make([]map[string]any, 0, bestDealCount)
	for _, r := range topDeals(valued) {
		entry := dealMap(r)
		entry["value_score"] = valueScore(r, maxPrice)
		value = append(value, entry)
	}

	return map[string]any{
		"cheapest":      dealMaps(topDeals(cheapest)),
		"highest_rated": dealMaps(topDeals(rated)),
		"best_value":    value,
	}
}

// valueScore weighs the rating against how far the price sits below the
// most expensive listing in the batch.
func valueScore(r model.ProductRecord, maxPrice float64) float64 {
	if maxPrice <= 0 {
		return 0
	}
	return r.RatingValue() / 5 * (1 - r.Price/maxPrice)
}

func topDeals(records []model.ProductRecord) []model.ProductRecord {
	if len(records) > bestDealCount {
		return records[:bestDealCount]
	}
	return records
}

func dealMaps(records []model.ProductRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, dealMap(r))
	}
	return out
}

func dealMap(r model.ProductRecord) map[string]any {
	m := map[string]any{
		"platform": r.Platform,
		"name":     r.Name,
		"price":    r.Price,
		"currency": r.Currency,
		"url":      r.URL,
	}
	if r.HasRating() {
		m["rating"] = r.RatingValue()
	}
	return m
}

func (a *PriceAnalyzer) insights(table *model.Table, prices []float64, result *model.AnalysisResult) []string {
	var out []string

	minV, maxV := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minV {
			minV = p
		}
		if p > maxV {
			maxV = p
		}
	}
	if minV > 0 && maxV > minV {
		out = append(out, fmt.Sprintf("prices range from %.2f to %.2f, a %.1f%% spread", minV, maxV, (maxV-minV)/minV*100))
	}

	if label, ok := result.Data["dispersion"].(string); ok {
		switch label {
		case stats.DispersionLow:
			out = append(out, "prices are tightly clustered across listings")
		case stats.DispersionModerate:
			out = append(out, "prices vary moderately across listings")
		case stats.DispersionHigh:
			out = append(out, "prices vary widely, comparing listings carefully pays off")
		}
	}

	if ratings := table.Ratings(); len(ratings) > 0 {
		sum := 0.0
		for _, v := range ratings {
			sum += v
		}
		avg := sum / float64(len(ratings))
		switch {
		case avg >= ratingStrongThreshold:
			out = append(out, fmt.Sprintf("listings are well rated, %.1f average", avg))
		case avg >= ratingMixedThreshold:
			out = append(out, fmt.Sprintf("ratings are mixed, %.1f average", avg))
		default:
			out = append(out, fmt.Sprintf("ratings are poor, %.1f average", avg))
		}
	}

	if platforms := table.Platforms(); len(platforms) > 1 {
		out = append(out, fmt.Sprintf("listings found on %d platforms", len(platforms)))
		if dominant := dominantPlatform(table); dominant != "" {
			out = append(out, fmt.Sprintf("most listings come from %s", dominant))
		}
	}
	return out
}

// dominantPlatform returns the platform carrying more than half of the
// records, or "" when listings are spread out.
func dominantPlatform(table *model.Table) string {
	counts := map[string]int{}
	for _, r := range table.Records {
		counts[r.Platform]++
	}
	for platform, n := range counts {
		if 2*n > table.Len() {
			return platform
		}
	}
	return ""
}

func (a *PriceAnalyzer) recommendations(table *model.Table, result *model.AnalysisResult) []string {
	var out []string

	cheapest := cheapestPlatform(table)
	if cheapest != "" {
		out = append(out, fmt.Sprintf("%s has the lowest average price", cheapest))
	}
	if label, ok := result.Data["dispersion"].(string); ok && label == stats.DispersionHigh {
		out = append(out, "price dispersion is high, check listing details before buying")
	}
	if result.Degraded(stats.SectionFit) || result.Degraded(stats.SectionOutliers) {
		out = append(out, "sample is small, collect more listings for firmer statistics")
	}
	return out
}

// cheapestPlatform returns the platform with the lowest average valid
// price, or "" when no platform has one.
func cheapestPlatform(table *model.Table) string {
	best := ""
	bestAvg := 0.0
	for platform, records := range table.ByPlatform() {
		sum, n := 0.0, 0
		for _, r := range records {
			if r.HasPrice() {
				sum += r.Price
				n++
			}
		}
		if n == 0 {
			continue
		}
		avg := sum / float64(n)
		if best == "" || avg < bestAvg || (avg == bestAvg && platform < best) {
			best = platform
			bestAvg = avg
		}
	}
	return best
}
