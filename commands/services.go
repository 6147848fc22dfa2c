package commands

import (
	"context"

	"sjsage522/carsales/config"
	"sjsage522/carsales/helpers"
	"sjsage522/carsales/internal/scraper"
	"sjsage522/carsales/logger"
	apperrors "sjsage522/carsales/pkg/errors"
	"sjsage522/carsales/services/cache"
	"sjsage522/carsales/services/publisher"
)

// Services holds all the initialized services
type Services struct {
	Client *helpers.Client
	// Cache stores rate-limit blocks; nil when no memcache is configured
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Failures  helpers.LoggerInterface
	Overrides map[string]map[string]string
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.ForPublisher().Warn().Err(err).Msg("Failed to close publisher")
		}
	}
}

// initializeServices initializes the services enabled by cfg
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{
		Client: helpers.NewClient(helpers.ClientOptions{
			Timeout:          cfg.HTTPTimeout,
			RetryCount:       cfg.RetryCount,
			RetryWaitTime:    cfg.RetryWaitTime,
			RetryMaxWaitTime: cfg.RetryMaxWaitTime,
		}),
		Publisher: publisher.NopPublisher{},
		Failures:  helpers.NopLogger{},
	}

	if cfg.ErrorLogFile != "" {
		services.Failures = helpers.NewLogger(cfg.ErrorLogFile)
	}

	if cfg.BrandMapFile != "" {
		overrides, err := scraper.LoadBrandOverrides(cfg.BrandMapFile)
		if err != nil {
			return nil, apperrors.NewConfiguration("failed to load BRAND_MAP_FILE", err)
		}
		services.Overrides = overrides
	}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using Memcache at %s for rate-limit blocks", cfg.MemcacheAddr)
	} else {
		logger.Debug("MEMCACHE_ADDR not set, rate-limit blocks last for this run only")
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			logger.Warn("Redis at %s unreachable, updates will not be published: %v", cfg.RedisAddr, err)
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services, nil
}
