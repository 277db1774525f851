package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/model"
)

// WriteRecordsJSON writes records as an indented JSON array.
func WriteRecordsJSON(w io.Writer, records []model.ProductRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(records), "export: encode records json")
}

// WriteResultJSON writes an analysis result as indented JSON.
func WriteResultJSON(w io.Writer, result *model.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(result), "export: encode result json")
}

// ReadRecordsJSON reads a JSON array of records.
func ReadRecordsJSON(r io.Reader) ([]model.ProductRecord, error) {
	var out []model.ProductRecord
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "export: decode records json")
	}
	return out, nil
}
