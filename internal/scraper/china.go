package scraper

import (
	"context"
	"fmt"

	"sjsage522/carsales/helpers"
	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// ChinaScraper extracts one month of brand sales from a Chinese ranking page
type ChinaScraper struct {
	BaseScraper
	Month         sales.Month
	TableSelector string
	Brands        *BrandMap
}

// NewChinaScraper creates a scraper for the ranking page at url covering month
func NewChinaScraper(base BaseScraper, month sales.Month, tableSelector string, brands *BrandMap) *ChinaScraper {
	base.Region = RegionChina
	if base.CacheKey == "" {
		base.CacheKey = "carsales:block:" + RegionChina
	}
	if tableSelector == "" {
		tableSelector = "table"
	}
	if brands == nil {
		brands = ChinaBrands()
	}
	return &ChinaScraper{
		BaseScraper:   base,
		Month:         month,
		TableSelector: tableSelector,
		Brands:        brands,
	}
}

// Scrape fetches the page and extracts the month's brand figures
func (c *ChinaScraper) Scrape(ctx context.Context) (*Report, error) {
	log := logger.ForScraper(c.GetName())

	if c.Month.IsZero() {
		return nil, apperrors.NewValidation(RegionChina, "month is required")
	}

	utf8Body, err := c.fetchWithCache(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := c.createDocument(utf8Body)
	if err != nil {
		return nil, err
	}

	table, err := ParseChinaTable(doc, c.TableSelector, c.Month, c.Brands)
	if err != nil {
		return nil, err
	}

	log.Info().Str("month", c.Month.String()).Int("brands", table.Len()).Msg("Extracted brand sales")
	return &Report{Region: RegionChina, Source: c.URL, Table: table}, nil
}

// ParseChinaTable reads brand (second cell) and units (third cell) from every body row
// of the first table matching selector
func ParseChinaTable(doc *goquery.Document, selector string, month sales.Month, brands *BrandMap) (*sales.Table, error) {
	tableSel := doc.Find(selector).First()
	if tableSel.Length() == 0 {
		return nil, apperrors.NewParsing(RegionChina, fmt.Sprintf("no table found for %s", month), nil)
	}

	log := logger.ForScraper(RegionChina)
	table := sales.NewBrandTable()

	tableSel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		tds := tr.ChildrenFiltered("td")
		if tds.Length() < 3 {
			return
		}

		name := helpers.CleanText(tds.Eq(1).Text())
		units, err := helpers.ParseUnits(tds.Eq(2).Text())
		if err != nil {
			return
		}

		brand, ok := brands.Translate(name)
		if !ok {
			log.Debug().Str("label", name).Msg("Skipping unmapped brand")
			return
		}
		if _, exists := table.Get(brand, month); exists {
			log.Warn().Str("brand", brand).Str("label", name).Msg("Duplicate brand row, keeping the first")
			return
		}
		table.Set(brand, month, units)
	})

	if table.Len() == 0 {
		return nil, apperrors.NewParsing(RegionChina, fmt.Sprintf("no data for %s", month), nil)
	}
	return table, nil
}

// GetName returns the scraper's name
func (c *ChinaScraper) GetName() string {
	return "china"
}
