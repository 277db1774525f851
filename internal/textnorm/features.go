package textnorm

import (
	"regexp"
	"sort"
	"strings"

	"github.com/siongui/gojianfan"
)

var specTokenRe = regexp.MustCompile(`\d+[a-zA-Z]*(?:\.\d+)?[a-zA-Z]*|\d+[xX×]\d+`)
var brandPrefixRe = regexp.MustCompile(`^[A-Za-z]+`)

// FeatureBundle holds the classified facets of a product name. Each set is
// deduplicated; Tokens preserves the normalized full-text token set used
// for the headline similarity component.
type FeatureBundle struct {
	Tokens    map[string]struct{}
	Brands    map[string]struct{}
	Keywords  map[string]struct{}
	Specs     map[string]struct{}
	Colors    map[string]struct{}
	Materials map[string]struct{}
}

func newFeatureBundle() *FeatureBundle {
	return &FeatureBundle{
		Tokens:    map[string]struct{}{},
		Brands:    map[string]struct{}{},
		Keywords:  map[string]struct{}{},
		Specs:     map[string]struct{}{},
		Colors:    map[string]struct{}{},
		Materials: map[string]struct{}{},
	}
}

// Empty reports whether no facet captured anything.
func (f *FeatureBundle) Empty() bool {
	return len(f.Tokens) == 0 && len(f.Brands) == 0 && len(f.Keywords) == 0 &&
		len(f.Specs) == 0 && len(f.Colors) == 0 && len(f.Materials) == 0
}

// SortedTokens returns the full-text tokens in lexical order, for stable
// display and logging.
func (f *FeatureBundle) SortedTokens() []string {
	out := make([]string, 0, len(f.Tokens))
	for t := range f.Tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Features classifies the tokens of name into brand, spec, color, material
// and keyword facets. Classification runs over raw segmented tokens before
// stopword filtering so that marketing terms can still act as evidence of a
// spec or color, while the Tokens facet uses the filtered normalization.
func (n *Normalizer) Features(name string) *FeatureBundle {
	fb := newFeatureBundle()
	for _, t := range n.Normalize(name) {
		fb.Tokens[t] = struct{}{}
	}
	for _, tok := range n.rawTokens(name) {
		classify(fb, tok)
	}
	return fb
}

// rawTokens segments name without stopword or length filtering, for the
// classification pass.
func (n *Normalizer) rawTokens(name string) []string {
	cleaned := n.clean(name)
	if cleaned == "" {
		return nil
	}
	if containsCJK(cleaned) {
		simplified := gojianfan.T2S(strings.ToLower(cleaned))
		var out []string
		for _, tok := range n.seg.Cut(simplified, true) {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if isLatinToken(tok) {
				for _, sub := range strings.Fields(strings.ToLower(tok)) {
					out = append(out, rawSubTokens(sub)...)
				}
				continue
			}
			out = append(out, tok)
		}
		return out
	}
	var out []string
	for _, sub := range strings.Fields(strings.ToLower(cleaned)) {
		out = append(out, rawSubTokens(sub)...)
	}
	return out
}

// rawSubTokens boundary-splits a Latin token and strips unit suffixes like
// the normalization pass, but keeps fillers and short fragments so the
// classifier sees everything.
func rawSubTokens(raw string) []string {
	if dimensionRe.MatchString(raw) {
		return []string{raw}
	}
	var out []string
	for _, part := range splitLetterDigit(raw) {
		if m := quantityRe.FindStringSubmatch(part); m != nil && unitSuffixes.has(m[2]) {
			part = m[1]
		}
		out = append(out, part)
	}
	return out
}

// classify applies the facet rules in precedence order; the first rule that
// matches wins and later rules are not consulted for the token.
func classify(fb *FeatureBundle, tok string) {
	if runeLen(tok) < 2 {
		return
	}
	if m := brandPrefixRe.FindString(tok); m != "" && m == tok && runeLen(tok) > 2 && !latinFillers.has(tok) {
		fb.Brands[tok] = struct{}{}
		return
	}
	if specTokenRe.MatchString(tok) {
		fb.Specs[canonicalSpec(tok)] = struct{}{}
		return
	}
	if colorVocab.containsAny(tok) {
		fb.Colors[tok] = struct{}{}
		return
	}
	if materialVocab.containsAny(tok) {
		fb.Materials[tok] = struct{}{}
		return
	}
	if generalStopwords.has(tok) || productStopwords.has(tok) || latinFillers.has(tok) {
		return
	}
	fb.Keywords[tok] = struct{}{}
}

// canonicalSpec strips recognized unit suffixes from quantity specs so
// "256gb" and "256g" compare equal, and lowercases dimension separators.
func canonicalSpec(tok string) string {
	tok = strings.ToLower(strings.Map(func(r rune) rune {
		if r == '×' {
			return 'x'
		}
		return r
	}, tok))
	if m := quantityRe.FindStringSubmatch(tok); m != nil && unitSuffixes.has(m[2]) {
		return m[1]
	}
	return tok
}
