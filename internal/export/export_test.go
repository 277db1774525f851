package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/pricelens/pricewatch/internal/model"
)

func sampleRecords() []model.ProductRecord {
	rating := 4.5
	reviews := 1234
	r1 := model.NewProductRecord("amazon", "B0TEST1", "Apple iPhone 15 Pro 256GB", 999.0, "USD")
	r1.Timestamp = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r1.Rating = &rating
	r1.ReviewCount = &reviews
	r1.URL = "https://www.amazon.com/dp/B0TEST1"

	r2 := model.NewProductRecord("ebay", "987654321", "iPhone 15 Pro 256GB unlocked", 949.0, "USD")
	r2.Timestamp = time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)
	return []model.ProductRecord{r1, r2}
}

func sampleResult() *model.AnalysisResult {
	res := model.NewAnalysisResult(model.AnalysisTypeStatistical, map[string]any{
		"descriptive": map[string]any{"mean": 974.0, "count": 2},
		"insights":    []any{"prices are close"},
	}, map[string]any{"total_records": 2})
	res.Timestamp = time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	res.Warnings = append(res.Warnings, model.Warning{Section: "outliers", Message: "too few samples"})
	return res
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{".csv", FormatCSV},
		{"JSON", FormatJSON},
		{"md", FormatMarkdown},
		{".markdown", FormatMarkdown},
		{"xlsx", FormatXLSX},
		{"htm", FormatHTML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestCSVRoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "platform,product_id,name,price"))

	got, err := ReadRecordsCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "amazon", got[0].Platform)
	assert.Equal(t, 999.0, got[0].Price)
	require.NotNil(t, got[0].Rating)
	assert.Equal(t, 4.5, *got[0].Rating)
	assert.Nil(t, got[1].Rating)
	assert.Equal(t, records[0].Timestamp, got[0].Timestamp)
}

func TestJSONRoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsJSON(&buf, records))

	got, err := ReadRecordsJSON(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, records[0].Name, got[0].Name)
	require.NotNil(t, got[0].ReviewCount)
	assert.Equal(t, 1234, *got[0].ReviewCount)
}

func TestWriteRecordsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecordsXLSX(&buf, sampleRecords()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Products", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Platform", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "amazon", sheet.Rows[1].Cells[0].String())

	price, err := sheet.Rows[1].Cells[3].Float()
	require.NoError(t, err)
	assert.Equal(t, 999.0, price)
	// missing rating leaves an empty cell
	assert.Equal(t, "", sheet.Rows[2].Cells[7].String())
}

func TestWriteRecordsMarkdown(t *testing.T) {
	rec := model.NewProductRecord("ebay", "X1", "2-in-1 cable | USB-C", 9.99, "USD")

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsMarkdown(&buf, []model.ProductRecord{rec}))

	out := buf.String()
	assert.Contains(t, out, "| Platform | Product ID | Name |")
	assert.Contains(t, out, `2-in-1 cable \| USB-C`)
	assert.Contains(t, out, "| 9.99 |")
}

func TestWriteRecordsMarkdownRomanizesCJKNames(t *testing.T) {
	rec := model.NewProductRecord("taobao", "T1", "小米手机", 1999.0, "CNY")

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsMarkdown(&buf, []model.ProductRecord{rec}))

	out := buf.String()
	assert.Contains(t, out, "小米手机 (xiao mi shou ji)")
}

func TestWriteResultMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultMarkdown(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "# statistical analysis")
	assert.Contains(t, out, "## descriptive")
	assert.Contains(t, out, "| mean | 974 |")
	assert.Contains(t, out, "## Warnings")
	assert.Contains(t, out, "**outliers**: too few samples")
}

func TestWriteRecordsHTMLEscapes(t *testing.T) {
	rec := model.NewProductRecord("amazon", "EVIL", "<script>alert(1)</script>", 1.0, "USD")

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsHTML(&buf, []model.ProductRecord{rec}))

	out := buf.String()
	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestWriteRecordsHTMLRomanizesCJKNames(t *testing.T) {
	rec := model.NewProductRecord("jd", "J1", "不锈钢保温杯", 59.0, "CNY")

	var buf bytes.Buffer
	require.NoError(t, WriteRecordsHTML(&buf, []model.ProductRecord{rec}))

	out := buf.String()
	assert.Contains(t, out, "不锈钢保温杯 (bu xiu gang bao wen bei)")

	latin := model.NewProductRecord("amazon", "A1", "USB Cable", 5.0, "USD")
	buf.Reset()
	require.NoError(t, WriteRecordsHTML(&buf, []model.ProductRecord{latin}))
	assert.Contains(t, buf.String(), "<td>USB Cable</td>")
}

func TestWriteResultHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultHTML(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "<h1>statistical analysis</h1>")
	assert.Contains(t, out, "<h2>descriptive</h2>")
	assert.Contains(t, out, "too few samples")
}

func TestWriteResultRejectsTabularFormats(t *testing.T) {
	var buf bytes.Buffer
	err := WriteResult(&buf, FormatCSV, sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support analysis results")
}
