package export

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/pricelens/pricewatch/internal/model"
)

// WriteRecordsCSV writes records as CSV with a header row derived from the
// record's csv tags.
func WriteRecordsCSV(w io.Writer, records []model.ProductRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return eris.Wrap(err, "export: encode csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// ReadRecordsCSV reads records from CSV produced by WriteRecordsCSV or any
// file with matching column headers. Unknown columns are ignored.
func ReadRecordsCSV(r io.Reader) ([]model.ProductRecord, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		return nil, eris.Wrap(err, "export: read csv header")
	}
	var out []model.ProductRecord
	for {
		var rec model.ProductRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrap(err, "export: decode csv row")
		}
		out = append(out, rec)
	}
	return out, nil
}
