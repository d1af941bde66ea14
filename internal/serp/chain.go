package serp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/madeira-labs/concorrente/internal/credentials"
	"github.com/madeira-labs/concorrente/internal/metrics"
)

// ResolveProvider walks the priority order and returns the id of the first
// provider whose credentials are present, or "" when none is available.
// An empty order falls back to DefaultPriority.
func ResolveProvider(order []string, creds *credentials.Config) string {
	if len(order) == 0 {
		order = DefaultPriority
	}
	if creds == nil {
		return ""
	}
	for _, id := range order {
		switch id {
		case ProviderSerpAPI:
			if creds.SerpAPIKey != "" {
				return id
			}
		case ProviderGoogleCSE:
			// CSE needs both the API key and the engine context id.
			if creds.GoogleCSEKey != "" && creds.GoogleCSEID != "" {
				return id
			}
		case ProviderBing:
			if creds.BingKey != "" {
				return id
			}
		}
	}
	return ""
}

// Chain fronts the configured providers with priority-based selection and an
// optional per-run result cache.
type Chain struct {
	active Provider
	cache  *Cache
	logger *slog.Logger
}

// ChainConfig configures a Chain.
type ChainConfig struct {
	Credentials *credentials.Config
	// Priority overrides DefaultPriority when non-empty.
	Priority []string
	// Cache short-circuits identical queries within a run. Nil disables caching.
	Cache  *Cache
	Logger *slog.Logger

	// Provider bypasses credential-based resolution and installs this
	// provider directly. Hosts that already hold a configured adapter can
	// inject it here.
	Provider Provider

	// newProvider overrides adapter construction in tests.
	newProvider func(id string, creds *credentials.Config) Provider
}

// NewChain resolves the active provider from the credentials and priority
// order. A chain with no available provider is valid and reports Enabled()
// false; its Search returns an error so misuse surfaces loudly.
func NewChain(cfg ChainConfig) *Chain {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	build := cfg.newProvider
	if build == nil {
		build = defaultProvider
	}

	c := &Chain{cache: cfg.Cache, logger: cfg.Logger}

	if cfg.Provider != nil {
		c.active = cfg.Provider
		cfg.Logger.Info("search provider injected", "provider", cfg.Provider.ID())
		return c
	}

	id := ResolveProvider(cfg.Priority, cfg.Credentials)
	if id == "" {
		cfg.Logger.Warn("no search provider has credentials, search disabled")
		return c
	}

	c.active = build(id, cfg.Credentials)
	cfg.Logger.Info("search provider selected", "provider", id)
	return c
}

func defaultProvider(id string, creds *credentials.Config) Provider {
	switch id {
	case ProviderSerpAPI:
		return NewSerpAPI(creds.SerpAPIKey)
	case ProviderGoogleCSE:
		return NewGoogleCSE(creds.GoogleCSEKey, creds.GoogleCSEID)
	case ProviderBing:
		return NewBing(creds.BingKey)
	default:
		return nil
	}
}

// Enabled reports whether any provider is available.
func (c *Chain) Enabled() bool { return c.active != nil }

// ActiveProvider returns the selected provider id, or "" when disabled.
func (c *Chain) ActiveProvider() string {
	if c.active == nil {
		return ""
	}
	return c.active.ID()
}

// Search queries the active provider, consulting the cache first. Cache hits
// are marked on the response but otherwise identical in structure.
func (c *Chain) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	if c.active == nil {
		return nil, fmt.Errorf("search is disabled: no provider credentials configured")
	}

	key := cacheKey(c.active.ID(), query, opts)
	if c.cache != nil {
		if resp, ok := c.cache.Get(key); ok {
			c.logger.Debug("search cache hit", "query", query)
			hit := *resp
			hit.Cached = true
			return &hit, nil
		}
	}

	resp, err := c.active.Search(ctx, query, opts)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(c.active.ID(), "error").Inc()
		return nil, fmt.Errorf("%s search failed: %w", c.active.ID(), err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(c.active.ID(), "ok").Inc()

	if c.cache != nil {
		c.cache.Put(key, resp)
	}
	return resp, nil
}

func cacheKey(provider, query string, opts Options) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", provider, query, opts.Limit, opts.Language, opts.Country)
}
