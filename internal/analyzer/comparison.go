package analyzer

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/match"
	"github.com/pricelens/pricewatch/internal/model"
)

// ComparisonAnalyzer matches listings across platforms and reports price
// spreads for products found on more than one of them.
type ComparisonAnalyzer struct {
	matcher *match.Matcher
}

// NewComparisonAnalyzer returns a ComparisonAnalyzer over the given
// matcher.
func NewComparisonAnalyzer(matcher *match.Matcher) *ComparisonAnalyzer {
	return &ComparisonAnalyzer{matcher: matcher}
}

// Analyze matches the table's records into cross-platform groups and
// summarizes the per-group and per-platform price picture. The table must
// cover at least two platforms.
func (a *ComparisonAnalyzer) Analyze(table *model.Table) (*model.AnalysisResult, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	platforms := table.Platforms()
	if len(platforms) < 2 {
		return nil, &model.ValidationError{
			Reason: fmt.Sprintf("comparison needs records from at least 2 platforms, got %d", len(platforms)),
		}
	}

	groups := a.matcher.Match(table.Records)

	result := model.NewAnalysisResult(model.AnalysisTypeComparison, nil, map[string]any{
		"total_records":        table.Len(),
		"platforms":            platforms,
		"similarity_threshold": a.matcher.Threshold(),
	})
	result.Data["matched_groups"] = groupMaps(groups)
	result.Data["total_groups"] = len(groups)
	result.Data["platform_summary"] = platformSummary(table)
	result.Data["potential_savings"] = potentialSavings(groups)

	if cheapest := cheapestPlatform(table); cheapest != "" {
		result.Data["cheapest_platform"] = cheapest
	}
	if len(groups) == 0 {
		result.Warnings = append(result.Warnings, model.Warning{
			Section: "matched_groups",
			Message: "no product matched across platforms at the current threshold",
		})
	}

	zap.L().Info("comparison analysis complete",
		zap.Int("records", table.Len()),
		zap.Int("groups", len(groups)))
	return result, nil
}

func groupMaps(groups []model.MatchGroup) []map[string]any {
	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		m := map[string]any{
			"product_name":   g.ProductName,
			"platforms":      g.Platforms,
			"platform_count": g.PlatformCount,
			"member_count":   len(g.Members),
		}
		if g.PriceSpread != nil {
			m["price_analysis"] = map[string]any{
				"min_price":                g.PriceSpread.MinPrice,
				"max_price":                g.PriceSpread.MaxPrice,
				"price_difference":         g.PriceSpread.Difference,
				"price_difference_percent": g.PriceSpread.DifferencePercent,
				"cheapest_platform":        g.PriceSpread.CheapestPlatform,
				"most_expensive_platform":  g.PriceSpread.MostExpensivePlatform,
			}
		}
		if g.RatingSpread != nil {
			m["rating_analysis"] = map[string]any{
				"min_rating":             g.RatingSpread.MinRating,
				"max_rating":             g.RatingSpread.MaxRating,
				"avg_rating":             g.RatingSpread.AvgRating,
				"highest_rated_platform": g.RatingSpread.HighestRatedPlatform,
			}
		}
		out = append(out, m)
	}
	return out
}

// platformSummary reports per-platform record counts and price aggregates
// in platform name order.
func platformSummary(table *model.Table) map[string]any {
	byPlatform := table.ByPlatform()
	names := make([]string, 0, len(byPlatform))
	for name := range byPlatform {
		names = append(names, name)
	}
	sort.Strings(names)

	out := map[string]any{}
	for _, name := range names {
		records := byPlatform[name]
		sum, n := 0.0, 0
		minV, maxV := 0.0, 0.0
		for _, r := range records {
			if !r.HasPrice() {
				continue
			}
			if n == 0 || r.Price < minV {
				minV = r.Price
			}
			if n == 0 || r.Price > maxV {
				maxV = r.Price
			}
			sum += r.Price
			n++
		}
		entry := map[string]any{"record_count": len(records), "priced_count": n}
		if n > 0 {
			entry["avg_price"] = sum / float64(n)
			entry["min_price"] = minV
			entry["max_price"] = maxV
		}
		out[name] = entry
	}
	return out
}

// potentialSavings totals the per-group price differences: what a buyer
// saves picking the cheapest platform for every matched product.
func potentialSavings(groups []model.MatchGroup) float64 {
	total := 0.0
	for _, g := range groups {
		if g.PriceSpread != nil {
			total += g.PriceSpread.Difference
		}
	}
	return total
}
