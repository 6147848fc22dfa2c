package scraper

import (
	"context"
	"fmt"
	"time"

	"sjsage522/carsales/helpers"
	"sjsage522/carsales/internal/sales"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// DefaultUSURLTemplate is the GoodCarBadCar brand sales page; %d is the year
const DefaultUSURLTemplate = "https://www.goodcarbadcar.net/%d-us-auto-sales-figures-by-brand-brand-rankings/"

// USScraper extracts a full year of monthly brand sales from GoodCarBadCar
type USScraper struct {
	BaseScraper
	Year          int
	TableSelector string
	Brands        *BrandMap
}

// USPageURL returns the brand sales page of year for a URL template
func USPageURL(template string, year int) string {
	if template == "" {
		template = DefaultUSURLTemplate
	}
	return fmt.Sprintf(template, year)
}

// NewUSScraper creates a scraper for year. An empty base URL is derived from the default template.
func NewUSScraper(base BaseScraper, year int, tableSelector string, brands *BrandMap) *USScraper {
	base.Region = RegionUS
	if year == 0 {
		year = time.Now().Year()
	}
	if base.URL == "" {
		base.URL = USPageURL(DefaultUSURLTemplate, year)
	}
	if base.CacheKey == "" {
		base.CacheKey = "carsales:block:" + RegionUS
	}
	if tableSelector == "" {
		tableSelector = "table#table_6"
	}
	if brands == nil {
		brands = USBrands()
	}
	return &USScraper{
		BaseScraper:   base,
		Year:          year,
		TableSelector: tableSelector,
		Brands:        brands,
	}
}

// Scrape fetches the page and extracts the year's brand figures
func (c *USScraper) Scrape(ctx context.Context) (*Report, error) {
	log := logger.ForScraper(c.GetName())

	utf8Body, err := c.fetchWithCache(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := c.createDocument(utf8Body)
	if err != nil {
		return nil, err
	}

	table, err := ParseUSTable(doc, c.TableSelector, c.Year, c.Brands)
	if err != nil {
		return nil, err
	}

	if dropped := table.DropEmptyMonths(); len(dropped) > 0 {
		log.Debug().Int("months", len(dropped)).Msg("Dropped months without figures")
	}
	if len(table.Months()) == 0 {
		return nil, apperrors.NewParsing(RegionUS, fmt.Sprintf("no monthly figures for %d", c.Year), nil)
	}

	log.Info().Int("year", c.Year).Int("brands", table.Len()).Int("months", len(table.Months())).Msg("Extracted brand sales")
	return &Report{Region: RegionUS, Source: c.URL, Table: table}, nil
}

// ParseUSTable reads brand and January..December cells from every data row of the table
func ParseUSTable(doc *goquery.Document, selector string, year int, brands *BrandMap) (*sales.Table, error) {
	tableSel := doc.Find(selector).First()
	if tableSel.Length() == 0 {
		return nil, apperrors.NewParsing(RegionUS, fmt.Sprintf("sales table %s not found", selector), nil)
	}

	log := logger.ForScraper(RegionUS)
	months := sales.MonthsOfYear(year)
	table := sales.NewBrandTable()

	tableSel.Find("tr[data-row-index]").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 2 {
			return
		}

		brand, ok := brands.Translate(tds.Eq(0).Text())
		if !ok {
			return
		}
		if table.Row(brand) != nil {
			log.Warn().Str("brand", brand).Msg("Duplicate brand row, keeping the first")
			return
		}
		table.AddBrand(brand)

		for i, m := range months {
			if i+1 >= tds.Length() {
				break
			}
			units, err := helpers.ParseUnits(tds.Eq(i + 1).Text())
			if err != nil {
				continue
			}
			table.Set(brand, m, units)
		}
	})

	if table.Len() == 0 {
		return nil, apperrors.NewParsing(RegionUS, fmt.Sprintf("no brand rows for %d", year), nil)
	}
	return table, nil
}

// GetName returns the scraper's name
func (c *USScraper) GetName() string {
	return "us"
}
