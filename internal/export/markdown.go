package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/model"
	"github.com/pricelens/pricewatch/internal/textnorm"
)

// WriteRecordsMarkdown writes records as a Markdown table.
func WriteRecordsMarkdown(w io.Writer, records []model.ProductRecord) error {
	var b strings.Builder
	b.WriteString("| Platform | Product ID | Name | Price | Currency | Rating | Captured At |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, r := range records {
		rating := ""
		if r.Rating != nil {
			rating = formatNumber(*r.Rating)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			escapeCell(r.Platform), escapeCell(r.ProductID), escapeCell(displayName(r.Name)),
			formatNumber(r.Price), r.Currency, rating,
			r.Timestamp.Format("2006-01-02 15:04"))
	}
	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "export: write markdown")
}

// WriteResultMarkdown renders an analysis result as a Markdown report. Each
// top-level data section becomes its own heading; nested structures fall
// back to fenced JSON blocks.
func WriteResultMarkdown(w io.Writer, result *model.AnalysisResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.ReplaceAll(result.AnalysisType, "_", " "))
	fmt.Fprintf(&b, "Generated: %s\n\n", result.Timestamp.Format("2006-01-02 15:04:05 MST"))

	if len(result.Metadata) > 0 {
		b.WriteString("## Metadata\n\n")
		writeKeyValues(&b, result.Metadata)
		b.WriteString("\n")
	}

	for _, key := range sortedKeys(result.Data) {
		fmt.Fprintf(&b, "## %s\n\n", strings.ReplaceAll(key, "_", " "))
		writeSection(&b, result.Data[key])
		b.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, warn := range result.Warnings {
			fmt.Fprintf(&b, "- **%s**: %s\n", warn.Section, warn.Message)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return eris.Wrap(err, "export: write markdown")
}

func writeSection(b *strings.Builder, v any) {
	switch val := v.(type) {
	case map[string]any:
		if flatMap(val) {
			writeKeyValues(b, val)
			return
		}
		writeJSONBlock(b, val)
	case []any, []string:
		writeJSONBlock(b, val)
	default:
		fmt.Fprintf(b, "%v\n", formatValue(val))
	}
}

// writeKeyValues renders a flat map as a two-column table with sorted keys.
func writeKeyValues(b *strings.Builder, m map[string]any) {
	b.WriteString("| Field | Value |\n|---|---|\n")
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(b, "| %s | %s |\n", strings.ReplaceAll(k, "_", " "), formatValue(m[k]))
	}
}

func writeJSONBlock(b *strings.Builder, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(b, "%v\n", v)
		return
	}
	fmt.Fprintf(b, "```json\n%s\n```\n", data)
}

// flatMap reports whether every value in m is a scalar.
func flatMap(m map[string]any) bool {
	for _, v := range m {
		switch v.(type) {
		case map[string]any, []any, []string, []float64, []map[string]any:
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return formatNumber(val)
	case string:
		return escapeCell(val)
	case nil:
		return ""
	default:
		return escapeCell(fmt.Sprintf("%v", val))
	}
}

// formatNumber trims trailing zeros so whole prices render without a
// decimal tail.
func formatNumber(f float64) string {
	s := fmt.Sprintf("%.4f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// displayName appends a pinyin reading to names that carry Han characters
// so reports stay searchable for readers without a CJK input method.
func displayName(name string) string {
	if roman := textnorm.Romanize(name); roman != name {
		return name + " (" + roman + ")"
	}
	return name
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
