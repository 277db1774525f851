package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/pricelens/pricewatch/internal/model"
)

// recordColumns defines the ordered spreadsheet output columns.
var recordColumns = []string{
	"Platform",
	"Product ID",
	"Name",
	"Price",
	"Currency",
	"Availability",
	"URL",
	"Rating",
	"Review Count",
	"Seller",
	"Captured At",
}

// WriteRecordsXLSX writes records to a single-sheet workbook.
func WriteRecordsXLSX(w io.Writer, records []model.ProductRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Products")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range recordColumns {
		header.AddCell().SetString(col)
	}

	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Platform)
		row.AddCell().SetString(r.ProductID)
		row.AddCell().SetString(r.Name)
		row.AddCell().SetFloat(r.Price)
		row.AddCell().SetString(r.Currency)
		row.AddCell().SetString(r.Availability)
		row.AddCell().SetString(r.URL)
		if r.Rating != nil {
			row.AddCell().SetFloat(*r.Rating)
		} else {
			row.AddCell()
		}
		if r.ReviewCount != nil {
			row.AddCell().SetInt(*r.ReviewCount)
		} else {
			row.AddCell()
		}
		row.AddCell().SetString(r.Seller)
		row.AddCell().SetString(r.Timestamp.Format("2006-01-02 15:04:05"))
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}
