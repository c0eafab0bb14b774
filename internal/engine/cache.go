package engine

import (
	"context"
	"log/slog"
	"sync"

	"memora/internal/logging"
	"memora/internal/services"
)

// Cache owns at most one live engine instance plus the config it was built
// from. All construction and replacement happens under a single lock, so
// concurrent callers never trigger duplicate loads of the expensive model.
type Cache struct {
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	engine Engine
	cfg    Config
}

// NewCache constructs a cache around the given factory.
func NewCache(factory Factory, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{factory: factory, logger: logging.NewComponentLogger(logger, "engine_cache")}
}

// Get returns the cached engine when its config equals the requested one,
// otherwise constructs a replacement. A failed construction falls back once
// to DefaultConfig; when that also fails the call reports EngineUnavailable
// and callers must not retry indefinitely.
func (c *Cache) Get(ctx context.Context, cfg Config) (Engine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine != nil && c.cfg == cfg {
		return c.engine, nil
	}

	eng, err := c.factory(ctx, cfg)
	if err == nil {
		c.replace(eng, cfg)
		return eng, nil
	}

	fallback := DefaultConfig()
	if cfg == fallback {
		return nil, services.Wrap(services.ErrEngineUnavailable, "engine_cache", "load", describe(cfg), err)
	}

	c.logger.Warn("engine load failed, retrying with safe defaults",
		logging.String("requested_model", cfg.ModelSize),
		logging.String("requested_device", cfg.Device),
		logging.Error(err),
	)

	eng, fallbackErr := c.factory(ctx, fallback)
	if fallbackErr != nil {
		return nil, services.Wrap(services.ErrEngineUnavailable, "engine_cache", "load fallback", describe(fallback), fallbackErr)
	}
	c.replace(eng, fallback)
	return eng, nil
}

// Current reports the config of the live engine, if any.
func (c *Cache) Current() (Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		return Config{}, false
	}
	return c.cfg, true
}

func (c *Cache) replace(eng Engine, cfg Config) {
	c.engine = eng
	c.cfg = cfg
	c.logger.Info("engine loaded",
		logging.String("model", cfg.ModelSize),
		logging.String("device", cfg.Device),
		logging.String("compute_type", cfg.ComputeType),
	)
}

func describe(cfg Config) string {
	return cfg.ModelSize + "/" + cfg.Device + "/" + cfg.ComputeType
}
