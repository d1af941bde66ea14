// Package webintel inspects competitor websites during the web-search phase:
// it fetches the homepage with a browser-like transport, detects bot-walls,
// extracts page metadata and social links, and samples the sitemap to gauge
// the site's content footprint. Every failure here degrades to an empty
// snapshot; this package never fails a pipeline run.
package webintel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/madeira-labs/concorrente/internal/fingerprint"
	"github.com/madeira-labs/concorrente/pkg/proxy"
	"github.com/madeira-labs/concorrente/pkg/ratelimit"
	"github.com/madeira-labs/concorrente/pkg/useragent"
)

// Page is the raw outcome of fetching one URL. A failed fetch is still a
// value: Err carries the reason and the other fields stay zero.
type Page struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Err        string
}

// OK reports whether the fetch produced a usable 2xx response.
func (p *Page) OK() bool { return p.Err == "" && p.StatusCode >= 200 && p.StatusCode < 300 }

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Timeout     time.Duration        // zero means 30s
	Fingerprint fingerprint.Profile  // zero value presents Chrome
	UserAgents  *useragent.Pool      // nil uses the built-in pool
	Limiter     *ratelimit.Limiter   // nil disables pacing
	Proxies     *proxy.Pool          // nil disables proxy rotation
}

// Fetcher fetches pages with a browser-like TLS fingerprint, UA rotation and
// optional proxy rotation. One Fetcher holds one client, so cookies persist
// across fetches for its lifetime.
type Fetcher struct {
	cfg     FetcherConfig
	client  *http.Client
	proxies *proxy.Pool
}

type contextKey string

const proxyKey contextKey = "snapshot_proxy"

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgents == nil {
		cfg.UserAgents = useragent.NewPool(nil)
	}

	// The proxy is picked per request and carried via context, because the
	// transport is shared and mutating its Proxy field concurrently is unsafe.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if v := req.Context().Value(proxyKey); v != nil {
			if u, ok := v.(*url.URL); ok {
				return u, nil
			}
		}
		return nil, nil
	}

	transport, err := fingerprint.NewTransport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		proxies: cfg.Proxies,
	}, nil
}

// Fetch GETs targetURL and returns the outcome as a Page. Transport-level
// failures are reported inside the Page, not as an error; only a nil context
// or rate-limiter cancellation produce one.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	if f.cfg.Limiter != nil {
		if err := f.cfg.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	page := &Page{URL: targetURL}

	var activeProxy *url.URL
	if f.proxies != nil {
		activeProxy = f.proxies.Next()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		page.Err = fmt.Sprintf("build request: %v", err)
		page.Duration = time.Since(start)
		return page, nil
	}
	if activeProxy != nil {
		req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
	}

	req.Header.Set("User-Agent", f.cfg.UserAgents.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if activeProxy != nil {
			f.proxies.MarkFailure(activeProxy)
		}
		page.Err = fmt.Sprintf("request failed: %v", err)
		page.Duration = time.Since(start)
		return page, nil
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		f.proxies.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		page.Err = fmt.Sprintf("read body: %v", err)
	}

	page.StatusCode = resp.StatusCode
	page.Headers = resp.Header
	page.Body = body
	page.Duration = time.Since(start)
	return page, nil
}
