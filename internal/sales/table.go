package sales

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultKey is the header of the brand column
const DefaultKey = "Brand"

// Record is a single data point: units sold by a brand in a month
type Record struct {
	Brand string `json:"brand"`
	Month Month  `json:"month"`
	Units int64  `json:"units"`
}

// Row holds the label cells and monthly figures of one brand
type Row struct {
	Labels []string
	Values map[Month]int64
	// Text holds month cells that are not sales figures, kept as written
	Text map[Month]string
	// Passthrough rows have no usable brand key; they keep their position and are never merged
	Passthrough bool
}

func newRow(width int) *Row {
	return &Row{
		Labels: make([]string, width),
		Values: make(map[Month]int64),
		Text:   make(map[Month]string),
	}
}

func (r *Row) hasCell(m Month) bool {
	if _, ok := r.Values[m]; ok {
		return true
	}
	_, ok := r.Text[m]
	return ok
}

func (r *Row) clearCell(m Month) bool {
	had := r.hasCell(m)
	delete(r.Values, m)
	delete(r.Text, m)
	return had
}

// Table is a brand-indexed, month-columned sales table.
// Labels are the non-month columns in display order; Labels[KeyIndex] is the brand column.
type Table struct {
	Labels   []string
	KeyIndex int

	rows   []*Row
	index  map[string]*Row
	months map[Month]struct{}
}

// NewTable creates an empty table with the given label columns
func NewTable(labels []string, keyIndex int) *Table {
	if len(labels) == 0 {
		labels = []string{DefaultKey}
		keyIndex = 0
	}
	if keyIndex < 0 || keyIndex >= len(labels) {
		keyIndex = 0
	}
	return &Table{
		Labels:   append([]string(nil), labels...),
		KeyIndex: keyIndex,
		index:    make(map[string]*Row),
		months:   make(map[Month]struct{}),
	}
}

// NewBrandTable creates an empty table with a single Brand label column
func NewBrandTable() *Table {
	return NewTable([]string{DefaultKey}, 0)
}

// Key returns the header of the brand column
func (t *Table) Key() string {
	return t.Labels[t.KeyIndex]
}

// Len returns the number of brand rows, passthrough rows excluded
func (t *Table) Len() int {
	return len(t.index)
}

// Rows returns every row in insertion order, passthrough rows included
func (t *Table) Rows() []*Row {
	return t.rows
}

// Row returns the row of brand, or nil
func (t *Table) Row(brand string) *Row {
	return t.index[brand]
}

// Brands returns the brand keys in row order
func (t *Table) Brands() []string {
	brands := make([]string, 0, len(t.rows))
	for _, r := range t.rows {
		if !r.Passthrough {
			brands = append(brands, r.Labels[t.KeyIndex])
		}
	}
	return brands
}

// AddBrand returns the row of brand, creating it when absent
func (t *Table) AddBrand(brand string) (*Row, bool) {
	if r, ok := t.index[brand]; ok {
		return r, false
	}
	r := newRow(len(t.Labels))
	r.Labels[t.KeyIndex] = brand
	t.rows = append(t.rows, r)
	t.index[brand] = r
	return r, true
}

// AddPassthrough appends a row that is not reachable by brand, such as a row
// with a blank key or a repeated brand. Its cells are written back as they are.
func (t *Table) AddPassthrough(labels []string) *Row {
	r := newRow(len(t.Labels))
	copy(r.Labels, labels)
	r.Passthrough = true
	t.rows = append(t.rows, r)
	return r
}

// AddMonth registers a month column even if no row holds a value for it
func (t *Table) AddMonth(m Month) bool {
	if _, ok := t.months[m]; ok {
		return false
	}
	t.months[m] = struct{}{}
	return true
}

// HasMonth reports whether the table has a column for m
func (t *Table) HasMonth(m Month) bool {
	_, ok := t.months[m]
	return ok
}

// Months returns the month columns in ascending order
func (t *Table) Months() []Month {
	months := make([]Month, 0, len(t.months))
	for m := range t.months {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// Set stores units for (brand, month), creating the row and column when needed
func (t *Table) Set(brand string, m Month, units int64) {
	r, _ := t.AddBrand(brand)
	r.Values[m] = units
	t.AddMonth(m)
}

// Get returns the units for (brand, month)
func (t *Table) Get(brand string, m Month) (int64, bool) {
	r, ok := t.index[brand]
	if !ok {
		return 0, false
	}
	v, ok := r.Values[m]
	return v, ok
}

// Clear empties the cell (brand, month) and reports whether it held a value
func (t *Table) Clear(brand string, m Month) bool {
	r, ok := t.index[brand]
	if !ok {
		return false
	}
	return r.clearCell(m)
}

// LabelIndex returns the position of a label column, matched case-insensitively, or -1
func (t *Table) LabelIndex(column string) int {
	for i, l := range t.Labels {
		if strings.EqualFold(strings.TrimSpace(l), strings.TrimSpace(column)) {
			return i
		}
	}
	return -1
}

// SetLabel sets a non-key label cell of brand's row
func (t *Table) SetLabel(brand, column, value string) error {
	i := t.LabelIndex(column)
	if i < 0 {
		return fmt.Errorf("unknown label column %q", column)
	}
	if i == t.KeyIndex {
		return fmt.Errorf("label column %q is the key column", column)
	}
	r, _ := t.AddBrand(brand)
	r.Labels[i] = value
	return nil
}

// Label returns a label cell of brand's row
func (t *Table) Label(brand, column string) string {
	i := t.LabelIndex(column)
	r := t.index[brand]
	if i < 0 || r == nil {
		return ""
	}
	return r.Labels[i]
}

// Records flattens the brand rows in row order, months ascending
func (t *Table) Records() []Record {
	months := t.Months()
	var records []Record
	for _, r := range t.rows {
		if r.Passthrough {
			continue
		}
		for _, m := range months {
			if v, ok := r.Values[m]; ok {
				records = append(records, Record{Brand: r.Labels[t.KeyIndex], Month: m, Units: v})
			}
		}
	}
	return records
}

// DropEmptyMonths removes month columns without any non-zero value and returns them
func (t *Table) DropEmptyMonths() []Month {
	var dropped []Month
	for _, m := range t.Months() {
		empty := true
		for _, r := range t.rows {
			if v, ok := r.Values[m]; (ok && v != 0) || r.Text[m] != "" {
				empty = false
				break
			}
		}
		if !empty {
			continue
		}
		for _, r := range t.rows {
			r.clearCell(m)
		}
		delete(t.months, m)
		dropped = append(dropped, m)
	}
	return dropped
}
