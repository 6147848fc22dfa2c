package scraper

import (
	"context"

	"sjsage522/carsales/internal/sales"
)

// Regions served by the scrapers
const (
	RegionChina  = "china"
	RegionUS     = "us"
	RegionEurope = "europe"
)

// Report is the outcome of one scrape
type Report struct {
	Region string
	Source string
	Table  *sales.Table
	// Raw holds the extracted source rows for snapshot sheets, if the scraper keeps them
	Raw [][]string
}

// Scraper interface defines the contract for all regional scrapers
type Scraper interface {
	// Scrape fetches the source and extracts the brand-by-month table
	Scrape(ctx context.Context) (*Report, error)

	// GetName returns the scraper's name for logging and identification
	GetName() string

	// GetRegion returns the region the scraper covers
	GetRegion() string
}
