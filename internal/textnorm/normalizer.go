package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-ego/gse"
	"github.com/rotisserie/eris"
	"github.com/siongui/gojianfan"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	htmlEntityRe = regexp.MustCompile(`&[a-zA-Z#0-9]+;`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	dimensionRe  = regexp.MustCompile(`^\d+[xX×]\d+$`)
	quantityRe   = regexp.MustCompile(`^(\d+(?:\.\d+)?)([a-z]+)$`)
)

// bracketPunct maps CJK and Latin brackets plus listing punctuation to
// spaces before segmentation.
const bracketPunct = "【】[]()（）<>《》“”‘’『』「」,，.。;；:：!！?？~～@#$%^&*+=|\\/"

// Normalizer converts raw product titles from either platform locale into
// a canonical token form. Construct once and share; the dictionary load in
// New is the expensive part and the methods are safe for concurrent use.
type Normalizer struct {
	seg       gse.Segmenter
	stripMark transform.Transformer
}

// New loads the segmentation dictionary and returns a ready Normalizer.
func New() (*Normalizer, error) {
	seg, err := gse.New()
	if err != nil {
		return nil, eris.Wrap(err, "textnorm: load segmenter dictionary")
	}
	return &Normalizer{
		seg:       seg,
		stripMark: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}, nil
}

// Normalize tokenizes name. CJK input is converted to simplified characters
// and dictionary-segmented; Latin input is accent-stripped and split on
// letter/digit boundaries with measurement units removed. Mixed input takes
// the CJK path, with Latin runs inside it handled by the same token rules.
func (n *Normalizer) Normalize(name string) []string {
	cleaned := n.clean(name)
	if cleaned == "" {
		return nil
	}
	if containsCJK(cleaned) {
		return n.normalizeCJK(cleaned)
	}
	return n.normalizeLatin(cleaned)
}

// NormalizedName returns the canonical space-joined form of name.
func (n *Normalizer) NormalizedName(name string) string {
	return strings.Join(n.Normalize(name), " ")
}

// TokenSet returns the deduplicated token set of name.
func (n *Normalizer) TokenSet(name string) map[string]struct{} {
	toks := n.Normalize(name)
	out := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		out[t] = struct{}{}
	}
	return out
}

func (n *Normalizer) clean(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = htmlEntityRe.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(bracketPunct, r) {
			return ' '
		}
		return r
	}, s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func (n *Normalizer) normalizeCJK(cleaned string) []string {
	simplified := gojianfan.T2S(strings.ToLower(cleaned))
	var out []string
	for _, tok := range n.seg.Cut(simplified, true) {
		tok = strings.TrimSpace(tok)
		if tok == "" || runeLen(tok) <= 1 {
			continue
		}
		if generalStopwords.has(tok) || productStopwords.has(tok) {
			continue
		}
		if singleRepeatedRune(tok) {
			continue
		}
		if isLatinToken(tok) {
			out = append(out, latinSubTokens(tok)...)
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (n *Normalizer) normalizeLatin(cleaned string) []string {
	lowered := strings.ToLower(cleaned)
	if folded, _, err := transform.String(n.stripMark, lowered); err == nil {
		lowered = folded
	}
	lowered = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == 'x' || r == '×':
			return r
		default:
			return ' '
		}
	}, lowered)

	var out []string
	for _, raw := range strings.Fields(lowered) {
		out = append(out, latinSubTokens(raw)...)
	}
	return out
}

// latinSubTokens splits a raw Latin token on letter/digit boundaries,
// strips unit suffixes from quantities, and drops fillers and fragments.
// Dimension tokens like "1920x1080" are kept whole.
func latinSubTokens(raw string) []string {
	raw = strings.ToLower(raw)
	if dimensionRe.MatchString(raw) {
		return []string{raw}
	}
	var out []string
	for _, part := range splitLetterDigit(raw) {
		if m := quantityRe.FindStringSubmatch(part); m != nil && unitSuffixes.has(m[2]) {
			part = m[1]
		}
		if runeLen(part) <= 1 {
			continue
		}
		if latinFillers.has(part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

// splitLetterDigit cuts a token at each transition between letters and
// digits, so "iphone15" becomes ["iphone", "15"] and "256gb" becomes
// ["256gb"] only when the quantity regex does not already apply.
func splitLetterDigit(tok string) []string {
	if m := quantityRe.FindStringSubmatch(tok); m != nil && unitSuffixes.has(m[2]) {
		return []string{tok}
	}
	var parts []string
	runes := []rune(tok)
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		if unicode.IsLetter(prev) && unicode.IsDigit(cur) || unicode.IsDigit(prev) && unicode.IsLetter(cur) {
			// Keep digit+unit runs together for the quantity pass.
			if unicode.IsDigit(prev) && unicode.IsLetter(cur) {
				rest := strings.ToLower(string(runes[i:]))
				if unitSuffixes.has(rest) {
					continue
				}
			}
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func isLatinToken(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func singleRepeatedRune(s string) bool {
	runes := []rune(s)
	if len(runes) < 2 {
		return false
	}
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}

func runeLen(s string) int {
	return len([]rune(s))
}
