package scrapejob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Kind selects what the resolver asks the scraping actor for.
type Kind string

const (
	// KindProfile fetches the profile document plus recent posts.
	KindProfile Kind = "details"
	// KindPosts fetches posts only.
	KindPosts Kind = "posts"
)

// errEmptyResult marks a tier that technically succeeded but found nothing.
var errEmptyResult = errors.New("no items returned")

// ResolveOptions tunes one resolution.
type ResolveOptions struct {
	// Limit caps the number of result items per job.
	Limit int
	// NoFallback disables the keyword-search second tier; the direct error is
	// then propagated unchanged.
	NoFallback bool
}

// Resolver looks up an entity with a direct-address job first and a
// keyword-search job second. Direct addressing is precise but brittle
// (renamed or private entities); search is forgiving but noisy. Trying direct
// first keeps precision and pays for the fallback only when needed.
type Resolver struct {
	runner       *Runner
	actor        string
	timeout      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Runner *Runner
	// Actor is the remote actor id for both tiers. Zero value uses the
	// standard profile scraper.
	Actor string
	// Timeout bounds each tier's job wall-clock time. Zero means 5 minutes.
	Timeout time.Duration
	// PollInterval is the fixed poll cadence. Zero means 5 seconds.
	PollInterval time.Duration
	Logger       *slog.Logger
}

const defaultScrapeActor = "apify~instagram-scraper"

// NewResolver creates a Resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.Actor == "" {
		cfg.Actor = defaultScrapeActor
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resolver{
		runner:       cfg.Runner,
		actor:        cfg.Actor,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}
}

// Resolve runs the two-tier lookup for key. It returns the first tier's items
// when non-empty, otherwise the fallback tier's. It fails with
// *ResolutionError only when both tiers fail or come back empty; with
// NoFallback set, the direct error is returned as-is.
func (r *Resolver) Resolve(ctx context.Context, key string, kind Kind, opts ResolveOptions) ([]json.RawMessage, error) {
	items, directErr := r.runTier(ctx, r.directSpec(key, kind, opts.Limit))
	if directErr == nil {
		return items, nil
	}

	if opts.NoFallback {
		return nil, fmt.Errorf("direct lookup of %q: %w", key, directErr)
	}

	r.logger.Info("direct lookup failed, trying keyword search",
		"key", key, "err", directErr)

	items, searchErr := r.runTier(ctx, r.searchSpec(key, kind, opts.Limit))
	if searchErr == nil {
		return items, nil
	}

	return nil, &ResolutionError{Key: key, DirectErr: directErr, SearchErr: searchErr}
}

// runTier executes one job spec and treats an empty result set as a failure
// for fallback purposes.
func (r *Resolver) runTier(ctx context.Context, spec Spec) ([]json.RawMessage, error) {
	items, err := r.runner.Run(ctx, spec, r.timeout, r.pollInterval)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errEmptyResult
	}
	return items, nil
}

// directSpec addresses the entity by its canonical profile URL.
func (r *Resolver) directSpec(key string, kind Kind, limit int) Spec {
	input := map[string]any{
		"directUrls":  []string{"https://www.instagram.com/" + key + "/"},
		"resultsType": string(kind),
	}
	if limit > 0 {
		input["resultsLimit"] = limit
	}
	return Spec{Actor: r.actor, Input: input}
}

// searchSpec looks the entity up by keyword instead.
func (r *Resolver) searchSpec(key string, kind Kind, limit int) Spec {
	input := map[string]any{
		"search":      key,
		"searchType":  "user",
		"searchLimit": 1,
		"resultsType": string(kind),
	}
	if limit > 0 {
		input["resultsLimit"] = limit
	}
	return Spec{Actor: r.actor, Input: input}
}
