package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"example.com/debt-planner/backend/internal/ai"
	"example.com/debt-planner/backend/internal/allocation"
	"example.com/debt-planner/backend/internal/cache"
	"example.com/debt-planner/backend/internal/config"
	"example.com/debt-planner/backend/internal/engine"
	"example.com/debt-planner/backend/internal/planner"
)

const cachePingTimeout = 3 * time.Second

// Components — общий расчетный стек сервера и CLI.
type Components struct {
	Engine  *engine.Engine
	Policy  *allocation.Policy
	Planner *planner.Planner
	// CachePing равен nil, если используется кэш в памяти.
	CachePing func(ctx context.Context) error

	closers []func() error
}

// Options — что собирать помимо движка.
type Options struct {
	Tuning config.Tuning
	AI     config.AIConfig
	Cache  config.CacheConfig
	Logger *slog.Logger
}

// Build собирает движок, политику распределения, кэш и планировщик.
// Недоступный Redis не считается ошибкой: планировщик работает с кэшем в памяти.
func Build(ctx context.Context, options Options) (*Components, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	eng, err := engine.New(options.Tuning.Engine)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	components := &Components{
		Engine: eng,
		Policy: allocation.NewPolicy(eng, options.Tuning.Allocation.Thresholds, options.Tuning.Allocation.Presets),
	}

	resultCache := components.openCache(ctx, options.Cache, logger)

	plannerOptions := planner.Options{
		Engine:             eng,
		Policy:             components.Policy,
		CashflowThresholds: options.Tuning.Cashflow,
		Cache:              resultCache,
		Logger:             logger,
	}

	if options.AI.Enabled {
		client, err := ai.NewClient(ai.ClientOptions{
			Provider:  options.AI.Provider,
			APIKey:    options.AI.APIKey,
			BaseURL:   options.AI.BaseURL,
			Model:     options.AI.Model,
			Timeout:   options.AI.Timeout,
			MaxTokens: options.AI.MaxOutputTokens,
		})
		if err != nil {
			return nil, err
		}
		plannerOptions.Narrator = ai.NewService(client)
		plannerOptions.NarrationTimeout = options.AI.Timeout
		logger.Info("ai narration enabled", slog.String("provider", options.AI.Provider), slog.String("model", options.AI.Model))
	}

	components.Planner = planner.New(plannerOptions)
	return components, nil
}

// Close освобождает внешние подключения.
func (c *Components) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Components) openCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) cache.Cache {
	if !cfg.Enabled {
		return cache.NewMemoryCache(cfg.TTL)
	}

	redisCache := cache.NewRedisCache(cache.RedisOptions{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.TTL,
		Prefix:   cfg.Prefix,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cachePingTimeout)
	defer cancel()

	if err := redisCache.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, using in-memory cache", slog.String("addr", cfg.Addr), slog.String("error", err.Error()))
		_ = redisCache.Close()
		return cache.NewMemoryCache(cfg.TTL)
	}

	logger.Info("redis cache connected", slog.String("addr", cfg.Addr))
	c.CachePing = redisCache.Ping
	c.closers = append(c.closers, redisCache.Close)
	return redisCache
}
