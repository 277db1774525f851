package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
)

var pinyinArgs = pinyin.NewArgs()

// Romanize renders the Han characters of s as toneless pinyin, leaving
// other runes untouched. Used for export filenames and log-friendly forms
// of Chinese listing titles.
func Romanize(s string) string {
	var b strings.Builder
	var hanRun []rune
	pad := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
			b.WriteByte(' ')
		}
	}
	flush := func() {
		if len(hanRun) == 0 {
			return
		}
		pad()
		for i, syl := range pinyin.LazyConvert(string(hanRun), &pinyinArgs) {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(syl)
		}
		hanRun = hanRun[:0]
	}
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			hanRun = append(hanRun, r)
			continue
		}
		if len(hanRun) > 0 {
			flush()
			if r != ' ' {
				b.WriteByte(' ')
			}
		}
		if r == ' ' && strings.HasSuffix(b.String(), " ") {
			continue
		}
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

var priceRe = regexp.MustCompile(`(?:[$¥€£]|USD|CNY|RMB)\s*(\d+(?:,\d{3})*(?:\.\d{1,2})?)|(\d+(?:,\d{3})*(?:\.\d{1,2})?)\s*(?:元|美元|人民币)`)

// ExtractPrices pulls currency-marked amounts out of free text, in
// document order. Thousands separators are tolerated.
func ExtractPrices(text string) []float64 {
	var out []float64
	for _, m := range priceRe.FindAllStringSubmatch(text, -1) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		raw = strings.ReplaceAll(raw, ",", "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			out = append(out, v)
		}
	}
	return out
}
