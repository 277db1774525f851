// Package export renders collected records and analysis results to the
// supported output formats.
package export

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/model"
)

// Format identifies an output encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat resolves a user-supplied format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", eris.Errorf("export: unsupported format %q", s)
	}
}

// WriteRecords encodes records to w in the given format.
func WriteRecords(w io.Writer, format Format, records []model.ProductRecord) error {
	switch format {
	case FormatCSV:
		return WriteRecordsCSV(w, records)
	case FormatJSON:
		return WriteRecordsJSON(w, records)
	case FormatXLSX:
		return WriteRecordsXLSX(w, records)
	case FormatMarkdown:
		return WriteRecordsMarkdown(w, records)
	case FormatHTML:
		return WriteRecordsHTML(w, records)
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

// WriteResult encodes an analysis result to w in the given format. Tabular
// formats are not supported for the nested result structure.
func WriteResult(w io.Writer, format Format, result *model.AnalysisResult) error {
	switch format {
	case FormatJSON:
		return WriteResultJSON(w, result)
	case FormatMarkdown:
		return WriteResultMarkdown(w, result)
	case FormatHTML:
		return WriteResultHTML(w, result)
	default:
		return eris.Errorf("export: format %q does not support analysis results", format)
	}
}

// RecordsToFile writes records to path, inferring the format from the file
// extension.
func RecordsToFile(path string, records []model.ProductRecord) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close()
	return WriteRecords(f, format, records)
}

// ResultToFile writes an analysis result to path, inferring the format from
// the file extension.
func ResultToFile(path string, result *model.AnalysisResult) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close()
	return WriteResult(f, format, result)
}
