package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sjsage522/carsales/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Storage locations
	DataDir      string
	PDFDir       string
	DefaultSheet string

	// HTTP client configuration
	HTTPTimeout        time.Duration
	RetryCount         int
	RetryWaitTime      time.Duration
	RetryMaxWaitTime   time.Duration
	RateLimitBlockTime time.Duration

	// Memcache configuration, empty disables rate-limit blocking
	MemcacheAddr string

	// Redis configuration, empty disables publishing
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Source configuration
	BrandMapFile       string
	USURLTemplate      string
	USTableSelector    string
	ChinaTableSelector string
	EuropePage         int
	EuropeUnitsField   int

	// Failure log, empty disables it
	ErrorLogFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		DataDir:              getEnv("DATA_DIR", ""),
		PDFDir:               getEnv("PDF_DIR", "acea_pdfs"),
		DefaultSheet:         getEnv("DEFAULT_SHEET", "Brands"),
		HTTPTimeout:          time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		RetryCount:           getEnvInt("HTTP_RETRY_COUNT", 3),
		RetryWaitTime:        time.Duration(getEnvInt("HTTP_RETRY_WAIT_MS", 1000)) * time.Millisecond,
		RetryMaxWaitTime:     time.Duration(getEnvInt("HTTP_RETRY_MAX_WAIT_MS", 10000)) * time.Millisecond,
		RateLimitBlockTime:   time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 600)) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "carsales"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		BrandMapFile:         getEnv("BRAND_MAP_FILE", ""),
		USURLTemplate:        getEnv("US_URL_TEMPLATE", "https://www.goodcarbadcar.net/%d-us-auto-sales-figures-by-brand-brand-rankings/"),
		USTableSelector:      getEnv("US_TABLE_SELECTOR", "table#table_6"),
		ChinaTableSelector:   getEnv("CHINA_TABLE_SELECTOR", "table"),
		EuropePage:           getEnvInt("EUROPE_PAGE", 6),
		EuropeUnitsField:     getEnvInt("EUROPE_UNITS_FIELD", 0),
		ErrorLogFile:         getEnv("ERROR_LOG_FILE", ""),
		Environment:          getEnv("SALES_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.DefaultSheet == "" {
		return errors.NewConfiguration("DEFAULT_SHEET must not be empty", nil)
	}
	if c.HTTPTimeout <= 0 {
		return errors.NewConfiguration("HTTP_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RetryCount < 0 {
		return errors.NewConfiguration("HTTP_RETRY_COUNT must not be negative", nil)
	}
	if c.RetryMaxWaitTime < c.RetryWaitTime {
		return errors.NewConfiguration("HTTP_RETRY_MAX_WAIT_MS must be >= HTTP_RETRY_WAIT_MS", nil)
	}
	if c.RedisStreamMaxLength <= 0 {
		return errors.NewConfiguration("REDIS_STREAM_MAX_LENGTH must be positive", nil)
	}
	if c.EuropePage < 1 {
		return errors.NewConfiguration("EUROPE_PAGE must be >= 1", nil)
	}
	if c.EuropeUnitsField < 0 {
		return errors.NewConfiguration("EUROPE_UNITS_FIELD must not be negative", nil)
	}
	return nil
}

// ResolvePath joins a relative spreadsheet path onto DataDir
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) || c.DataDir == "" {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
