package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccard(t *testing.T) {
	mk := func(items ...string) map[string]struct{} {
		s := make(map[string]struct{}, len(items))
		for _, it := range items {
			s[it] = struct{}{}
		}
		return s
	}

	assert.Equal(t, 1.0, Jaccard(mk(), mk()))
	assert.Equal(t, 0.0, Jaccard(mk("a"), mk()))
	assert.Equal(t, 0.0, Jaccard(mk(), mk("a")))
	assert.Equal(t, 1.0, Jaccard(mk("a", "b"), mk("a", "b")))
	assert.InDelta(t, 1.0/3.0, Jaccard(mk("a", "b"), mk("b", "c")), 1e-12)
}

func TestSimilarityBounds(t *testing.T) {
	n := newTestNormalizer(t)

	pairs := [][2]string{
		{"Apple iPhone 15 Pro 256GB", "iPhone15 Pro 256G"},
		{"Sony WH-1000XM5 Headphones", "Bose QC45 Headphones"},
		{"小米手机 黑色", "小米手机 白色"},
		{"USB Cable", "不锈钢保温杯"},
	}
	for _, p := range pairs {
		got := n.NameSimilarity(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
		// Symmetry.
		assert.InDelta(t, got, n.NameSimilarity(p[1], p[0]), 1e-12)
	}
}

func TestSimilaritySelf(t *testing.T) {
	n := newTestNormalizer(t)

	for _, name := range []string{
		"Apple iPhone 15 Pro 256GB",
		"小米手机 黑色 128G",
		"Logitech MX Master 3S Mouse",
	} {
		assert.InDelta(t, 1.0, n.NameSimilarity(name, name), 1e-12)
	}
}

func TestSimilarityEmptyInput(t *testing.T) {
	n := newTestNormalizer(t)

	assert.Equal(t, 0.0, n.NameSimilarity("", "Apple iPhone 15"))
	assert.Equal(t, 0.0, n.NameSimilarity("Apple iPhone 15", ""))
	assert.Equal(t, 0.0, n.NameSimilarity("", ""))
}

func TestSimilaritySameProductAcrossVariants(t *testing.T) {
	n := newTestNormalizer(t)

	got := n.NameSimilarity("Apple iPhone 15 Pro 256GB", "iPhone15 Pro 256G")
	assert.GreaterOrEqual(t, got, 0.8, "same product phrased differently should clear the match threshold")

	unrelated := n.NameSimilarity("Apple iPhone 15 Pro 256GB", "Nike Air Max 90 Sneakers")
	assert.Less(t, unrelated, 0.5)
}

func TestSimilarityWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, weightTokens+weightBrands+weightKeywords+weightSpecs, 1e-12)
}
