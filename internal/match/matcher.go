// Package match groups product records that describe the same item on
// different platforms, using blended token-set similarity over normalized
// names.
package match

import (
	"go.uber.org/zap"

	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/textnorm"
)

// DefaultThreshold is the minimum blended similarity for two records to be
// considered the same product.
const DefaultThreshold = 0.8

// Matcher clusters records greedily in input order. Matching is
// deterministic for a fixed input order and threshold.
type Matcher struct {
	norm      *textnorm.Normalizer
	threshold float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold overrides the similarity threshold. Values outside (0, 1]
// are ignored.
func WithThreshold(t float64) Option {
	return func(m *Matcher) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

// NewMatcher returns a Matcher over the given normalizer.
func NewMatcher(norm *textnorm.Normalizer, opts ...Option) *Matcher {
	m := &Matcher{norm: norm, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Threshold returns the active similarity threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match clusters records into cross-platform groups. Each unassigned record
// seeds a candidate group and claims every later unassigned record whose
// similarity clears the threshold; records on the seed's own platform never
// pair with it. A candidate group only becomes a match when its members
// span at least two platforms; otherwise its records stay unassigned and
// remain available to later seeds.
func (m *Matcher) Match(records []model.ProductRecord) []model.MatchGroup {
	if len(records) < 2 {
		return nil
	}

	// Normalize each name once; the pairwise scan below reuses the bundles.
	bundles := make([]*textnorm.FeatureBundle, len(records))
	for i := range records {
		bundles[i] = m.norm.Features(records[i].Name)
	}

	assigned := make([]bool, len(records))
	var groups []model.MatchGroup

	for i := range records {
		if assigned[i] || bundles[i].Empty() {
			continue
		}
		members := []int{i}
		for j := i + 1; j < len(records); j++ {
			if assigned[j] || bundles[j].Empty() {
				continue
			}
			if records[j].Platform == records[i].Platform {
				continue
			}
			if textnorm.Similarity(bundles[i], bundles[j]) >= m.threshold {
				members = append(members, j)
			}
		}

		platforms := distinctPlatforms(records, members)
		if len(platforms) < 2 {
			continue
		}
		for _, idx := range members {
			assigned[idx] = true
		}
		groups = append(groups, m.buildGroup(records, members, platforms))
	}

	zap.L().Debug("matched product groups",
		zap.Int("records", len(records)),
		zap.Int("groups", len(groups)),
		zap.Float64("threshold", m.threshold))
	return groups
}

func distinctPlatforms(records []model.ProductRecord, members []int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, idx := range members {
		p := records[idx].Platform
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (m *Matcher) buildGroup(records []model.ProductRecord, members []int, platforms []string) model.MatchGroup {
	group := model.MatchGroup{
		ProductName:   records[members[0]].Name,
		Platforms:     platforms,
		PlatformCount: len(platforms),
		Members:       make([]model.ProductRecord, 0, len(members)),
	}
	for _, idx := range members {
		group.Members = append(group.Members, records[idx])
	}
	group.PriceSpread = priceSpread(group.Members)
	group.RatingSpread = ratingSpread(group.Members)
	return group
}

// priceSpread summarizes the price range across members with a usable
// price. Nil when fewer than two members have one.
func priceSpread(members []model.ProductRecord) *model.PriceSpread {
	var priced []model.ProductRecord
	for _, r := range members {
		if r.HasPrice() {
			priced = append(priced, r)
		}
	}
	if len(priced) < 2 {
		return nil
	}
	cheapest, dearest := priced[0], priced[0]
	for _, r := range priced[1:] {
		if r.Price < cheapest.Price {
			cheapest = r
		}
		if r.Price > dearest.Price {
			dearest = r
		}
	}
	spread := &model.PriceSpread{
		MinPrice:              cheapest.Price,
		MaxPrice:              dearest.Price,
		Difference:            dearest.Price - cheapest.Price,
		CheapestPlatform:      cheapest.Platform,
		MostExpensivePlatform: dearest.Platform,
	}
	if cheapest.Price > 0 {
		spread.DifferencePercent = spread.Difference / cheapest.Price * 100
	}
	return spread
}

// ratingSpread summarizes member ratings. Nil when no member carries one.
func ratingSpread(members []model.ProductRecord) *model.RatingSpread {
	var rated []model.ProductRecord
	for _, r := range members {
		if r.HasRating() {
			rated = append(rated, r)
		}
	}
	if len(rated) == 0 {
		return nil
	}
	spread := &model.RatingSpread{
		MinRating: rated[0].RatingValue(),
		MaxRating: rated[0].RatingValue(),
	}
	sum := 0.0
	best := rated[0]
	for _, r := range rated {
		v := r.RatingValue()
		sum += v
		if v < spread.MinRating {
			spread.MinRating = v
		}
		if v > spread.MaxRating {
			spread.MaxRating = v
			best = r
		}
	}
	spread.AvgRating = sum / float64(len(rated))
	spread.HighestRatedPlatform = best.Platform
	return spread
}
