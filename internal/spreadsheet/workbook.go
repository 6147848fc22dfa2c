package spreadsheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"sjsage522/carsales/helpers"
	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"

	"github.com/xuri/excelize/v2"
)

const (
	// NumberFormat is the display format of sales cells
	NumberFormat = "#,###,###"

	maxSheetNameLength = 31
	labelColumnWidth   = 20
	monthColumnWidth   = 11
)

var sheetNameReplacer = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

// Workbook is an xlsx file opened for a read-merge-write cycle
type Workbook struct {
	path string
	file *excelize.File
	// placeholder is the default sheet of a new workbook, renamed by the first write
	placeholder string
	created     bool
	log         *logger.Logger
}

// Open opens the workbook at path, or starts a new one when the file does not exist
func Open(path string) (*Workbook, error) {
	log := logger.ForWorkbook(path)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f := excelize.NewFile()
		log.Debug().Msg("Workbook does not exist, starting a new one")
		return &Workbook{path: path, file: f, placeholder: f.GetSheetName(0), created: true, log: log}, nil
	} else if err != nil {
		return nil, apperrors.NewSpreadsheet(path, "failed to stat workbook", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewSpreadsheet(path, "failed to open workbook", err)
	}
	return &Workbook{path: path, file: f, log: log}, nil
}

// Path returns the file path of the workbook
func (w *Workbook) Path() string {
	return w.path
}

// IsNew reports whether the workbook has not been saved to disk yet
func (w *Workbook) IsNew() bool {
	return w.created
}

// Sheets returns the sheet names in workbook order
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// HasSheet reports whether the workbook holds a sheet named name
func (w *Workbook) HasSheet(name string) bool {
	if w.placeholder != "" && strings.EqualFold(name, w.placeholder) {
		return false
	}
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// ReadTable loads a brand sheet. A missing or empty sheet yields an empty table with the layout's columns.
func (w *Workbook) ReadTable(sheet string, layout Layout) (*sales.Table, error) {
	layout = layout.withDefaults()
	if !w.HasSheet(sheet) {
		return layout.NewTable(), nil
	}

	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewSpreadsheet(w.path, "failed to read sheet "+sheet, err)
	}
	if len(rows) == 0 {
		return layout.NewTable(), nil
	}

	type monthColumn struct {
		index int
		month sales.Month
	}
	var (
		labels     []string
		labelCols  []int
		monthCols  []monthColumn
		seenMonths = make(map[sales.Month]bool)
	)
	for i, h := range rows[0] {
		if m, ok := headerMonth(h); ok {
			if seenMonths[m] {
				w.log.Warn().Str("sheet", sheet).Str("month", m.String()).Msg("Duplicate month column, keeping the first")
			}
			seenMonths[m] = true
			monthCols = append(monthCols, monthColumn{index: i, month: m})
			continue
		}
		if strings.TrimSpace(h) == "" && i > 0 && !columnHasValues(rows[1:], i) {
			continue
		}
		labels = append(labels, strings.TrimSpace(h))
		labelCols = append(labelCols, i)
	}
	if len(labels) == 0 {
		return nil, apperrors.NewSpreadsheet(w.path, fmt.Sprintf("sheet %s has no brand column", sheet), nil)
	}

	keyIdx := layout.locateKey(labels)
	if labels[keyIdx] == "" {
		labels[keyIdx] = layout.Key
	}

	table := sales.NewTable(labels, keyIdx)
	for _, c := range monthCols {
		table.AddMonth(c.month)
	}

	for n, row := range rows[1:] {
		if rowIsBlank(row) {
			continue
		}
		cells := make([]string, len(labels))
		for i, col := range labelCols {
			cells[i] = strings.TrimSpace(cellAt(row, col))
		}

		var r *sales.Row
		brand := helpers.CleanText(cells[keyIdx])
		switch {
		case brand == "":
			w.log.Warn().Str("sheet", sheet).Int("row", n+2).Msg("Row without brand, keeping it as is")
			r = table.AddPassthrough(cells)
		case table.Row(brand) != nil:
			w.log.Warn().Str("sheet", sheet).Str("brand", brand).Int("row", n+2).Msg("Duplicate brand row, keeping it as is")
			r = table.AddPassthrough(cells)
		default:
			r, _ = table.AddBrand(brand)
			for i, c := range cells {
				if i != keyIdx {
					r.Labels[i] = c
				}
			}
		}

		for _, c := range monthCols {
			raw := strings.TrimSpace(cellAt(row, c.index))
			if raw == "" {
				continue
			}
			if _, exists := r.Values[c.month]; exists {
				continue
			}
			if _, exists := r.Text[c.month]; exists {
				continue
			}
			units, err := parseCellUnits(raw)
			if err != nil {
				w.log.Debug().Str("sheet", sheet).Int("row", n+2).Str("month", c.month.String()).Msg("Keeping non-numeric cell as text")
				r.Text[c.month] = raw
				continue
			}
			r.Values[c.month] = units
		}
	}

	return table, nil
}

// ensureSheet creates sheet when missing and reports whether it did
func (w *Workbook) ensureSheet(sheet string) (bool, error) {
	if w.HasSheet(sheet) {
		return false, nil
	}
	if w.placeholder != "" {
		if err := w.file.SetSheetName(w.placeholder, sheet); err != nil {
			return false, apperrors.NewSpreadsheet(w.path, "failed to name sheet "+sheet, err)
		}
		w.placeholder = ""
		return true, nil
	}
	if _, err := w.file.NewSheet(sheet); err != nil {
		return false, apperrors.NewSpreadsheet(w.path, "failed to create sheet "+sheet, err)
	}
	return true, nil
}

// WriteTable rewrites sheet in place with table: label columns, then months ascending.
// Rows keep their table order, passthrough rows included. Other sheets are left
// untouched; cells outside the new extent are cleared.
func (w *Workbook) WriteTable(sheet string, table *sales.Table) error {
	created, err := w.ensureSheet(sheet)
	if err != nil {
		return err
	}

	oldRows, err := w.file.GetRows(sheet)
	if err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to read sheet "+sheet, err)
	}
	oldRowCount, oldColCount := sheetExtent(oldRows)

	months := table.Months()
	header := make([]interface{}, 0, len(table.Labels)+len(months))
	for _, l := range table.Labels {
		header = append(header, l)
	}
	for _, m := range months {
		header = append(header, m.String())
	}
	if err := w.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to write header of "+sheet, err)
	}

	for i, r := range table.Rows() {
		row := make([]interface{}, 0, len(header))
		for _, l := range r.Labels {
			row = append(row, l)
		}
		for _, m := range months {
			if v, ok := r.Values[m]; ok {
				row = append(row, v)
			} else if text, ok := r.Text[m]; ok {
				row = append(row, text)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewSpreadsheet(w.path, "invalid row", err)
		}
		if err := w.file.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewSpreadsheet(w.path, "failed to write row "+cell, err)
		}
	}

	rowCount, colCount := len(table.Rows())+1, len(header)
	if err := clearSheetArea(w.file, sheet, 1, oldRowCount, colCount+1, oldColCount); err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to clear stale columns", err)
	}
	if err := clearSheetArea(w.file, sheet, rowCount+1, oldRowCount, 1, colCount); err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to clear stale rows", err)
	}

	if created {
		if err := w.setColumnWidths(sheet, len(table.Labels), len(months)); err != nil {
			return err
		}
	}

	w.log.Debug().Str("sheet", sheet).Int("brands", table.Len()).Int("rows", len(table.Rows())).Int("months", len(months)).Msg("Sheet written")
	return w.Format(sheet)
}

func (w *Workbook) setColumnWidths(sheet string, labels, months int) error {
	if labels > 0 {
		last, _ := excelize.ColumnNumberToName(labels)
		if err := w.file.SetColWidth(sheet, "A", last, labelColumnWidth); err != nil {
			return apperrors.NewSpreadsheet(w.path, "failed to size columns", err)
		}
	}
	if months > 0 {
		first, _ := excelize.ColumnNumberToName(labels + 1)
		last, _ := excelize.ColumnNumberToName(labels + months)
		if err := w.file.SetColWidth(sheet, first, last, monthColumnWidth); err != nil {
			return apperrors.NewSpreadsheet(w.path, "failed to size columns", err)
		}
	}
	return nil
}

// Format applies the display conventions of brand sheets: month headers as YYYY-MM text,
// thousands-separated sales cells, a bold header and panes frozen at the first data cell
func (w *Workbook) Format(sheet string) error {
	if !w.HasSheet(sheet) {
		return apperrors.NewSpreadsheet(w.path, fmt.Sprintf("sheet %s not found", sheet), nil)
	}

	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to read sheet "+sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	header := rows[0]

	firstMonth := -1
	var monthCols []int
	for i, h := range header {
		m, ok := headerMonth(h)
		if !ok {
			continue
		}
		if firstMonth < 0 {
			firstMonth = i
		}
		monthCols = append(monthCols, i)
		if h != m.String() {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := w.file.SetCellStr(sheet, cell, m.String()); err != nil {
				return apperrors.NewSpreadsheet(w.path, "failed to rewrite header "+cell, err)
			}
		}
	}

	headerStyle, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to create header style", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := w.file.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to style header", err)
	}

	numFmt := NumberFormat
	unitsStyle, err := w.file.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to create number style", err)
	}
	if len(rows) > 1 {
		for _, c := range monthCols {
			top, _ := excelize.CoordinatesToCellName(c+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(c+1, len(rows))
			if err := w.file.SetCellStyle(sheet, top, bottom, unitsStyle); err != nil {
				return apperrors.NewSpreadsheet(w.path, "failed to style "+top, err)
			}
		}
	}

	xSplit := firstMonth
	if xSplit < 0 {
		xSplit = 1
	}
	topLeft, _ := excelize.CoordinatesToCellName(xSplit+1, 2)
	panes := &excelize.Panes{
		Freeze:      true,
		XSplit:      xSplit,
		YSplit:      1,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
	}
	if xSplit == 0 {
		panes.ActivePane = "bottomLeft"
	}
	if err := w.file.SetPanes(sheet, panes); err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to freeze panes", err)
	}
	return nil
}

// AddSnapshot stores rows verbatim in a new sheet and returns the sheet's name,
// which gets a " (2)", " (3)" ... suffix when name is taken
func (w *Workbook) AddSnapshot(name string, rows [][]string) (string, error) {
	sheet := w.uniqueSheetName(name)
	if _, err := w.ensureSheet(sheet); err != nil {
		return "", err
	}

	for i, cells := range rows {
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", apperrors.NewSpreadsheet(w.path, "invalid row", err)
		}
		if err := w.file.SetSheetRow(sheet, cell, &row); err != nil {
			return "", apperrors.NewSpreadsheet(w.path, "failed to write snapshot row "+cell, err)
		}
	}

	w.log.Debug().Str("sheet", sheet).Int("rows", len(rows)).Msg("Snapshot sheet added")
	return sheet, nil
}

func (w *Workbook) uniqueSheetName(name string) string {
	base := truncateRunes(strings.TrimSpace(sheetNameReplacer.Replace(name)), maxSheetNameLength)
	if base == "" {
		base = "Sheet"
	}
	candidate := base
	for n := 2; w.HasSheet(candidate); n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, maxSheetNameLength-len(suffix)) + suffix
	}
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Save writes the workbook to its path, creating parent directories
func (w *Workbook) Save() error {
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewSpreadsheet(w.path, "failed to create directory", err)
		}
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return apperrors.NewSpreadsheet(w.path, "failed to save workbook", err)
	}
	w.created = false
	w.log.Debug().Msg("Workbook saved")
	return nil
}

// Close releases the workbook's resources
func (w *Workbook) Close() error {
	return w.file.Close()
}
