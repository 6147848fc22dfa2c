package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"sjsage522/carsales/helpers"

	"github.com/ledongthuc/pdf"
)

const (
	// wordGap and cellGap are horizontal gaps, in multiples of the font size,
	// that separate words within a cell and cells within a row
	wordGap = 0.15
	cellGap = 0.8

	defaultFontSize = 10.0
)

var (
	numericToken = regexp.MustCompile(`^[+-]?[\d.,]*\d[\d.,]*%?$`)
	integerToken = regexp.MustCompile(`^(\d{1,3}(,\d{3})+|\d+)$`)
)

// readPageRows extracts the text rows of a PDF page as cells, top to bottom
func readPageRows(data []byte, page int) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	if page < 1 || page > reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range, document has %d pages", page, reader.NumPage())
	}

	p := reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d is empty", page)
	}

	textRows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}

	for _, row := range textRows {
		if cells := cellsFromTexts(row.Content); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

// cellsFromTexts joins positioned text runs of one row into cells by their horizontal gaps
func cellsFromTexts(texts []pdf.Text) []string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		cells   []string
		current strings.Builder
		prevEnd float64
		started bool
	)
	flush := func() {
		if cell := helpers.CleanText(current.String()); cell != "" {
			cells = append(cells, cell)
		}
		current.Reset()
	}

	for _, t := range sorted {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}

		if started {
			gap := t.X - prevEnd
			switch {
			case gap > cellGap*size:
				flush()
			case gap > wordGap*size:
				current.WriteByte(' ')
			}
		}

		current.WriteString(t.S)
		prevEnd = t.X + t.W
		started = true
	}
	flush()

	return cells
}

// splitLabel separates the leading non-numeric tokens of a row from its figures
func splitLabel(cells []string) (string, []string) {
	tokens := strings.Fields(strings.Join(cells, " "))
	i := 0
	for i < len(tokens) && !numericToken.MatchString(tokens[i]) {
		i++
	}
	return strings.Join(tokens[:i], " "), tokens[i:]
}

// integerTokens returns the tokens that are whole unit counts, skipping percentages and ratios
func integerTokens(tokens []string) []string {
	var ints []string
	for _, t := range tokens {
		if integerToken.MatchString(t) {
			ints = append(ints, t)
		}
	}
	return ints
}
