package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/textnorm"
)

func newTestMatcher(t *testing.T, opts ...Option) *Matcher {
	t.Helper()
	n, err := textnorm.New()
	require.NoError(t, err)
	return NewMatcher(n, opts...)
}

func rec(platform, name string, price float64) model.ProductRecord {
	return model.NewProductRecord(platform, "", name, price, "USD")
}

func TestMatchCrossPlatform(t *testing.T) {
	m := newTestMatcher(t)

	records := []model.ProductRecord{
		rec("amazon", "Apple iPhone 15 Pro 256GB", 999),
		rec("ebay", "iPhone15 Pro 256G", 949),
		rec("amazon", "Nike Air Max 90 Sneakers", 120),
		rec("walmart", "Garden Hose 50ft", 25),
	}

	groups := m.Match(records)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "Apple iPhone 15 Pro 256GB", g.ProductName)
	assert.Equal(t, 2, g.PlatformCount)
	assert.ElementsMatch(t, []string{"amazon", "ebay"}, g.Platforms)
	require.Len(t, g.Members, 2)

	require.NotNil(t, g.PriceSpread)
	assert.Equal(t, 949.0, g.PriceSpread.MinPrice)
	assert.Equal(t, 999.0, g.PriceSpread.MaxPrice)
	assert.Equal(t, 50.0, g.PriceSpread.Difference)
	assert.InDelta(t, 50.0/949.0*100, g.PriceSpread.DifferencePercent, 1e-9)
	assert.Equal(t, "ebay", g.PriceSpread.CheapestPlatform)
	assert.Equal(t, "amazon", g.PriceSpread.MostExpensivePlatform)
}

func TestMatchSinglePlatformNeverGroups(t *testing.T) {
	m := newTestMatcher(t)

	records := []model.ProductRecord{
		rec("amazon", "Logitech MX Master 3S Mouse", 99),
		rec("amazon", "Logitech MX Master 3S Mouse", 95),
	}
	assert.Empty(t, m.Match(records))
}

func TestMatchIdenticalNamesAcrossThreePlatforms(t *testing.T) {
	m := newTestMatcher(t)

	records := []model.ProductRecord{
		rec("amazon", "Anker PowerCore 10000", 29.99),
		rec("ebay", "Anker PowerCore 10000", 24.99),
		rec("walmart", "Anker PowerCore 10000", 27.50),
	}

	groups := m.Match(records)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].PlatformCount)
	assert.Len(t, groups[0].Members, 3)
}

func TestMatchEmptyNamesIgnored(t *testing.T) {
	m := newTestMatcher(t)

	records := []model.ProductRecord{
		rec("amazon", "", 10),
		rec("ebay", "", 12),
	}
	assert.Empty(t, m.Match(records))
}

func TestMatchFewerThanTwoRecords(t *testing.T) {
	m := newTestMatcher(t)

	assert.Nil(t, m.Match(nil))
	assert.Nil(t, m.Match([]model.ProductRecord{rec("amazon", "Desk Lamp", 20)}))
}

func TestMatchThresholdOption(t *testing.T) {
	strict := newTestMatcher(t, WithThreshold(0.99))
	records := []model.ProductRecord{
		rec("amazon", "Apple iPhone 15 Pro 256GB", 999),
		rec("ebay", "iPhone15 Pro 256G", 949),
	}
	assert.Empty(t, strict.Match(records))

	// Out-of-range values keep the default.
	assert.Equal(t, DefaultThreshold, NewMatcher(nil, WithThreshold(0)).Threshold())
	assert.Equal(t, DefaultThreshold, NewMatcher(nil, WithThreshold(1.5)).Threshold())
}

func TestMatchSamePlatformDuplicateNeverPairs(t *testing.T) {
	m := newTestMatcher(t)

	// The fourth record duplicates the first on the same platform; it
	// cannot pair with it and ends up in no group.
	records := []model.ProductRecord{
		rec("amazon", "Apple iPhone 15 Pro 256GB", 999),
		rec("ebay", "iPhone15 Pro 256G", 949),
		rec("walmart", "Samsung Galaxy S24", 899),
		rec("amazon", "Apple iPhone 15 Pro 256GB", 999),
	}

	groups := m.Match(records)
	require.Len(t, groups, 1)

	g := groups[0]
	require.Len(t, g.Members, 2)
	assert.ElementsMatch(t, []string{"amazon", "ebay"}, g.Platforms)

	require.NotNil(t, g.PriceSpread)
	assert.Equal(t, 50.0, g.PriceSpread.Difference)
	assert.InDelta(t, 50.0/949.0*100, g.PriceSpread.DifferencePercent, 1e-9)
	assert.Equal(t, "ebay", g.PriceSpread.CheapestPlatform)
}

func TestMatchDiscardedSeedDoesNotBlockLaterGroups(t *testing.T) {
	m := newTestMatcher(t, WithThreshold(0.7))

	// The first record finds no cross-platform partner (its only
	// lookalike shares its platform, and the ebay listing is too far
	// off), so its candidate group is dropped. That must leave the
	// second record free to seed the accepted group.
	records := []model.ProductRecord{
		rec("amazon", "Wireless Noise Cancelling Headphones", 89),
		rec("amazon", "Wireless Noise Cancelling Headphones Bluetooth Travel", 94),
		rec("ebay", "Cancelling Headphones Bluetooth Travel", 79),
	}

	groups := m.Match(records)
	require.Len(t, groups, 1)

	g := groups[0]
	require.Len(t, g.Members, 2)
	assert.ElementsMatch(t, []string{"amazon", "ebay"}, g.Platforms)
	assert.Equal(t, 94.0, g.Members[0].Price)
	assert.Equal(t, 79.0, g.Members[1].Price)
}

func TestMatchDeterministic(t *testing.T) {
	m := newTestMatcher(t)

	records := []model.ProductRecord{
		rec("amazon", "Apple iPhone 15 Pro 256GB", 999),
		rec("ebay", "iPhone15 Pro 256G", 949),
		rec("jd", "Apple iPhone 15 Pro 256GB", 970),
	}
	first := m.Match(records)
	second := m.Match(records)
	assert.Equal(t, first, second)
}

func TestRatingSpread(t *testing.T) {
	m := newTestMatcher(t)

	r1 := rec("amazon", "Anker PowerCore 10000", 29.99)
	r1.Rating = ptr(4.7)
	r2 := rec("ebay", "Anker PowerCore 10000", 24.99)
	r2.Rating = ptr(4.3)

	groups := m.Match([]model.ProductRecord{r1, r2})
	require.Len(t, groups, 1)
	rs := groups[0].RatingSpread
	require.NotNil(t, rs)
	assert.Equal(t, 4.3, rs.MinRating)
	assert.Equal(t, 4.7, rs.MaxRating)
	assert.InDelta(t, 4.5, rs.AvgRating, 1e-9)
	assert.Equal(t, "amazon", rs.HighestRatedPlatform)
}

func ptr(v float64) *float64 { return &v }
