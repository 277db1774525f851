package textnorm

// Component weights for the blended similarity score. Full-text overlap
// dominates, keywords carry most of the rest, brand agreement is a strong
// but narrow signal, and spec agreement breaks ties.
const (
	weightTokens   = 0.4
	weightBrands   = 0.2
	weightKeywords = 0.3
	weightSpecs    = 0.1
)

// Jaccard returns the Jaccard index of two token sets. Two empty sets are
// identical (1.0); one empty set against a non-empty one shares nothing
// (0.0).
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Similarity blends per-facet Jaccard indices into a single score in
// [0, 1]. Names that normalize to nothing at all never match anything.
func Similarity(a, b *FeatureBundle) float64 {
	if a == nil || b == nil || a.Empty() || b.Empty() {
		return 0.0
	}
	score := weightTokens*Jaccard(a.Tokens, b.Tokens) +
		weightBrands*Jaccard(a.Brands, b.Brands) +
		weightKeywords*Jaccard(a.Keywords, b.Keywords) +
		weightSpecs*Jaccard(a.Specs, b.Specs)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// NameSimilarity is the convenience form over raw names, normalizing both
// through n before scoring.
func (n *Normalizer) NameSimilarity(x, y string) float64 {
	return Similarity(n.Features(x), n.Features(y))
}
