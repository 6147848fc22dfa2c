package spreadsheet

import (
	"strings"

	"sjsage522/carsales/internal/sales"
)

// Layout describes the label columns of a brand sheet
type Layout struct {
	// Key is the header of the brand column
	Key string
	// Labels are the label columns of a new sheet, Key among them
	Labels []string
}

// BrandLayout is the single "Brand" column layout of the China and Europe sheets
func BrandLayout() Layout {
	return Layout{Key: sales.DefaultKey, Labels: []string{sales.DefaultKey}}
}

// USLayout is the "Automaker, Brand" layout of the US sheet
func USLayout() Layout {
	return Layout{Key: sales.DefaultKey, Labels: []string{"Automaker", sales.DefaultKey}}
}

func (l Layout) withDefaults() Layout {
	if strings.TrimSpace(l.Key) == "" {
		l.Key = sales.DefaultKey
	}
	if len(l.Labels) == 0 {
		l.Labels = []string{l.Key}
	}
	return l
}

// keyPosition returns the position of Key in Labels, or 0
func (l Layout) keyPosition() int {
	for i, label := range l.Labels {
		if strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(l.Key)) {
			return i
		}
	}
	return 0
}

// locateKey finds the brand column among a sheet's label headers: by name, then by
// the key's position in the layout, then the first column
func (l Layout) locateKey(headers []string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(l.Key)) {
			return i
		}
	}
	if pos := l.keyPosition(); pos < len(headers) {
		return pos
	}
	return 0
}

// NewTable returns an empty table with the layout's columns
func (l Layout) NewTable() *sales.Table {
	l = l.withDefaults()
	return sales.NewTable(l.Labels, l.keyPosition())
}
