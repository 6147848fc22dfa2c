package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"sjsage522/carsales/helpers"
	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"
	"sjsage522/carsales/services/cache"
)

const (
	// DefaultEuropePage is the ACEA press release page holding the manufacturer table
	DefaultEuropePage = 6

	// rawUnitsColumn is the page column whose cell carries the month's units first
	rawUnitsColumn = 2
)

// EuropeScraper extracts one month of manufacturer registrations from an ACEA press release PDF
type EuropeScraper struct {
	BaseScraper
	Month      sales.Month
	Page       int
	UnitsField int
	Brands     *BrandMap
	// Documents keeps downloaded PDFs so re-runs do not download them again
	Documents cache.CacheService
}

// NewEuropeScraper creates a scraper for the PDF at the base URL covering month
func NewEuropeScraper(base BaseScraper, month sales.Month, page, unitsField int, brands *BrandMap, documents cache.CacheService) *EuropeScraper {
	base.Region = RegionEurope
	if base.CacheKey == "" {
		base.CacheKey = "carsales:block:" + RegionEurope
	}
	if page <= 0 {
		page = DefaultEuropePage
	}
	if unitsField < 0 {
		unitsField = 0
	}
	if brands == nil {
		brands = EuropeBrands()
	}
	return &EuropeScraper{
		BaseScraper: base,
		Month:       month,
		Page:        page,
		UnitsField:  unitsField,
		Brands:      brands,
		Documents:   documents,
	}
}

// DocumentName returns the file name the month's PDF is stored under, e.g. 2025_March.pdf
func DocumentName(month sales.Month) string {
	return fmt.Sprintf("%d_%s.pdf", month.Year, month.Month.String())
}

// Scrape downloads the PDF once and extracts the manufacturer table of the configured page
func (c *EuropeScraper) Scrape(ctx context.Context) (*Report, error) {
	log := logger.ForScraper(c.GetName())

	if c.Month.IsZero() {
		return nil, apperrors.NewValidation(RegionEurope, "month is required")
	}

	data, err := c.download(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := readPageRows(data, c.Page)
	if err != nil {
		return nil, apperrors.NewParsing(RegionEurope, fmt.Sprintf("failed to read page %d of %s", c.Page, DocumentName(c.Month)), err)
	}

	table, raw := ParseEuropeRows(rows, c.Month, c.UnitsField, c.Brands)
	if len(raw) == 0 {
		return nil, apperrors.NewParsing(RegionEurope, fmt.Sprintf("no table found on page %d", c.Page), nil)
	}

	log.Info().
		Str("month", c.Month.String()).
		Int("rows", len(raw)).
		Int("brands", table.Len()).
		Msg("Extracted manufacturer registrations")
	return &Report{Region: RegionEurope, Source: c.URL, Table: table, Raw: raw}, nil
}

// download returns the stored PDF of the month or fetches and stores it
func (c *EuropeScraper) download(ctx context.Context) ([]byte, error) {
	log := logger.ForScraper(c.GetName())
	name := DocumentName(c.Month)

	if c.Documents != nil {
		data, err := c.Documents.Get(name)
		if err == nil {
			log.Info().Str("file", name).Msg("Already downloaded")
			return data, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("file", name).Msg("Failed to read stored PDF, downloading again")
		}
	}

	data, err := c.fetchBytesWithCache(ctx)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\r\n\t "), []byte("%PDF")) {
		return nil, apperrors.NewParsing(RegionEurope, c.URL+" did not return a PDF document", nil)
	}

	if c.Documents != nil {
		if err := c.Documents.Set(name, data, 0); err != nil {
			return nil, apperrors.NewCache(RegionEurope, "failed to store "+name, err)
		}
		log.Info().Str("file", name).Int("bytes", len(data)).Msg("Downloaded")
	}
	return data, nil
}

// ParseEuropeRows turns the rebuilt page rows into the month's table and the snapshot rows.
// A row is a table row when it starts with a label followed by figures; its units are the
// unitsField-th whole number after the label. Snapshot rows start at the first table row.
func ParseEuropeRows(rows [][]string, month sales.Month, unitsField int, brands *BrandMap) (*sales.Table, [][]string) {
	log := logger.ForScraper(RegionEurope)
	table := sales.NewBrandTable()
	var raw [][]string

	for _, cells := range rows {
		label, figures := splitLabel(cells)
		ints := integerTokens(figures)
		isData := label != "" && len(ints) > 0

		if !isData && len(raw) == 0 {
			continue
		}
		raw = append(raw, cells)

		if !isData || unitsField >= len(ints) {
			continue
		}
		brand, ok := brands.Translate(label)
		if !ok {
			log.Debug().Str("label", label).Msg("Skipping unmapped manufacturer")
			continue
		}
		if _, exists := table.Get(brand, month); exists {
			continue
		}
		units, err := helpers.ParseUnits(ints[unitsField])
		if err != nil {
			continue
		}
		table.Set(brand, month, units)
	}

	return table, snapshotRows(raw)
}

// snapshotRows moves the first token of the units column into a last column shared by all rows
func snapshotRows(rows [][]string) [][]string {
	width := 0
	for _, cells := range rows {
		if len(cells) > width {
			width = len(cells)
		}
	}
	if width <= rawUnitsColumn {
		return rows
	}

	out := make([][]string, 0, len(rows))
	for _, cells := range rows {
		row := make([]string, 0, width)
		units := ""
		for i, c := range cells {
			if i == rawUnitsColumn {
				units, _ = helpers.GetSplitPart(c, " ", 0)
				continue
			}
			row = append(row, c)
		}
		for len(row) < width-1 {
			row = append(row, "")
		}
		out = append(out, append(row, units))
	}
	return out
}

// GetName returns the scraper's name
func (c *EuropeScraper) GetName() string {
	return "europe"
}
