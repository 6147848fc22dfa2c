package spreadsheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"sjsage522/carsales/helpers"
	"sjsage522/carsales/internal/sales"

	"github.com/xuri/excelize/v2"
)

// earliestSerialYear rejects small numbers that are not date serials, e.g. a "2024" year header
const earliestSerialYear = 1950

// headerMonth recognizes a raw header cell as a month: a date string or an Excel date serial
func headerMonth(raw string) (sales.Month, bool) {
	if m, ok := sales.ParseHeader(raw); ok {
		return m, true
	}

	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || serial <= 0 {
		return sales.Month{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil || t.Year() < earliestSerialYear || t.Year() > 9999 {
		return sales.Month{}, false
	}
	return sales.MonthOf(t), true
}

// parseCellUnits parses a raw sales cell, accepting whole floats such as "2.5E+5"
func parseCellUnits(raw string) (int64, error) {
	if units, err := helpers.ParseUnits(raw); err == nil {
		return units, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid units %q", raw)
	}
	if f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid units %q", raw)
	}
	return int64(f), nil
}

// cellAt returns the cell of a GetRows row, which omits trailing empty cells
func cellAt(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

// rowIsBlank reports whether every cell of row is blank
func rowIsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columnHasValues reports whether any row holds a non-blank cell in col
func columnHasValues(rows [][]string, col int) bool {
	for _, row := range rows {
		if strings.TrimSpace(cellAt(row, col)) != "" {
			return true
		}
	}
	return false
}

// clearSheetArea empties the cells of the given 1-based row and column ranges
func clearSheetArea(f *excelize.File, sheet string, fromRow, toRow, fromCol, toCol int) error {
	if fromRow > toRow || fromCol > toCol {
		return nil
	}
	for r := fromRow; r <= toRow; r++ {
		for c := fromCol; c <= toCol; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// sheetExtent returns the row count and widest row of a sheet
func sheetExtent(rows [][]string) (int, int) {
	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	return len(rows), maxCol
}
