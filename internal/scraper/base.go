package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"sjsage522/carsales/helpers"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"
	"sjsage522/carsales/services/cache"

	"github.com/PuerkitoBio/goquery"
)

// BaseScraper provides common functionality for all scrapers
type BaseScraper struct {
	URL       string
	Region    string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	Client    *helpers.Client
}

// checkBlocked fails fast while a previous rate-limit block is still cached
func (c *BaseScraper) checkBlocked() error {
	if c.CacheSvc == nil || c.CacheKey == "" {
		return nil
	}
	if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
		return apperrors.NewRateLimit(c.Region, c.BlockTime)
	}
	return nil
}

// fetchError classifies a fetch error and records rate-limit blocks
func (c *BaseScraper) fetchError(url string, err error) error {
	if errors.Is(err, helpers.ErrRateLimited) {
		if c.CacheSvc != nil && c.CacheKey != "" {
			value := []byte(fmt.Sprintf("%d", c.BlockTime/time.Second))
			if cacheErr := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); cacheErr != nil {
				logger.ForCache().Warn().Err(cacheErr).Str("key", c.CacheKey).Msg("Failed to store rate-limit block")
			}
		}
		return apperrors.New(apperrors.ErrorTypeRateLimit, c.Region, "source is rate limiting requests", err)
	}
	return apperrors.NewNetwork(c.Region, "failed to fetch "+url, err)
}

// fetchWithCache fetches the page at URL honoring rate-limit blocks
func (c *BaseScraper) fetchWithCache(ctx context.Context) (io.Reader, error) {
	if err := c.checkBlocked(); err != nil {
		return nil, err
	}

	utf8Body, err := c.Client.FetchHTML(ctx, c.URL)
	if err != nil {
		return nil, c.fetchError(c.URL, err)
	}

	return utf8Body, nil
}

// fetchBytesWithCache downloads a document at URL honoring rate-limit blocks
func (c *BaseScraper) fetchBytesWithCache(ctx context.Context) ([]byte, error) {
	if err := c.checkBlocked(); err != nil {
		return nil, err
	}

	data, err := c.Client.FetchBytes(ctx, c.URL)
	if err != nil {
		return nil, c.fetchError(c.URL, err)
	}

	return data, nil
}

// createDocument creates a goquery document from a reader
func (c *BaseScraper) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, apperrors.NewParsing(c.Region, "failed to parse HTML", err)
	}
	return doc, nil
}

// GetRegion returns the region the scraper covers
func (c *BaseScraper) GetRegion() string {
	return c.Region
}
