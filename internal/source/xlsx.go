package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// readXLSX reads one sheet of an XLSX workbook. The first non-empty row is
// the header. Cells are read raw so typed dates arrive as serial numbers
// instead of strings rendered through the cell's number format.
func readXLSX(path, sheet string) (domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.RawTable{}, fmt.Errorf("xlsx file %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var table domain.RawTable
	for rows.Next() {
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if blank(record) {
			continue
		}
		if table.Header == nil {
			table.Header = record
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	if err := rows.Error(); err != nil {
		return domain.RawTable{}, fmt.Errorf("error iterating rows in %s: %w", path, err)
	}
	if table.Header == nil {
		return domain.RawTable{}, fmt.Errorf("sheet %s of %s has no header row", sheet, path)
	}
	return table, nil
}
