package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// SheetDelimiter separates cells when a sheet is rendered as text. A
// semicolon keeps decimal-comma amounts intact.
const SheetDelimiter = ';'

// ReadXLSX renders the first worksheet of an .xlsx workbook as delimited text.
func ReadXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return renderRows(rows)
}

// ReadXLS renders the first worksheet of a legacy .xls workbook.
func ReadXLS(path string) (string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", fmt.Errorf("could not read first sheet")
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return renderRows(rows)
}

func renderRows(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = SheetDelimiter

	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("render row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render rows: %w", err)
	}
	return buf.String(), nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
