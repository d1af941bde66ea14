package webintel

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	sitemap "github.com/oxffaa/gopher-parse-sitemap"
	"github.com/temoto/robotstxt"
)

// Caps keeping sitemap sampling cheap: the snapshot only needs a footprint
// estimate, not a crawl frontier.
const (
	maxSitemapsPerSite = 3
	maxSitemapEntries  = 2000
)

// SitemapSampler estimates how many pages a site publishes by reading the
// sitemaps advertised in robots.txt. Used as a content-footprint signal for
// the gap analysis.
type SitemapSampler struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewSitemapSampler creates a sampler.
func NewSitemapSampler(fetcher *Fetcher, logger *slog.Logger) *SitemapSampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapSampler{fetcher: fetcher, logger: logger}
}

// CountPages returns the number of URLs listed in the site's sitemaps,
// bounded by the sampling caps. Sites without robots.txt or sitemaps count
// as zero without error; only fetch-level problems are returned.
func (s *SitemapSampler) CountPages(ctx context.Context, site string) (int, error) {
	u, err := url.Parse(site)
	if err != nil {
		return 0, fmt.Errorf("parse site url: %w", err)
	}
	origin := u.Scheme + "://" + u.Host

	sitemaps, err := s.sitemapURLs(ctx, origin)
	if err != nil {
		return 0, err
	}
	if len(sitemaps) > maxSitemapsPerSite {
		sitemaps = sitemaps[:maxSitemapsPerSite]
	}

	total := 0
	for _, smURL := range sitemaps {
		n, err := s.countOne(ctx, smURL, 0)
		if err != nil {
			s.logger.Debug("sitemap unreadable", "url", smURL, "err", err)
			continue
		}
		total += n
		if total >= maxSitemapEntries {
			return maxSitemapEntries, nil
		}
	}
	return total, nil
}

func (s *SitemapSampler) sitemapURLs(ctx context.Context, origin string) ([]string, error) {
	page, err := s.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		return nil, err
	}
	if !page.OK() {
		// No robots.txt: try the conventional location.
		return []string{origin + "/sitemap.xml"}, nil
	}

	robots, err := robotstxt.FromBytes(page.Body)
	if err != nil || len(robots.Sitemaps) == 0 {
		return []string{origin + "/sitemap.xml"}, nil
	}
	return robots.Sitemaps, nil
}

// countOne parses one sitemap document, following one level of sitemap-index
// nesting.
func (s *SitemapSampler) countOne(ctx context.Context, smURL string, depth int) (int, error) {
	page, err := s.fetcher.Fetch(ctx, smURL)
	if err != nil {
		return 0, err
	}
	if !page.OK() {
		return 0, fmt.Errorf("status %d: %s", page.StatusCode, page.Err)
	}

	count := 0
	err = sitemap.Parse(bytes.NewReader(page.Body), func(e sitemap.Entry) error {
		count++
		return nil
	})
	if err == nil && count > 0 {
		return count, nil
	}

	if depth >= 1 {
		return 0, fmt.Errorf("nested sitemap index too deep")
	}

	var nested []string
	if err := sitemap.ParseIndex(bytes.NewReader(page.Body), func(e sitemap.IndexEntry) error {
		nested = append(nested, strings.TrimSpace(e.GetLocation()))
		return nil
	}); err != nil || len(nested) == 0 {
		return 0, fmt.Errorf("not a sitemap or index")
	}

	if len(nested) > maxSitemapsPerSite {
		nested = nested[:maxSitemapsPerSite]
	}
	for _, n := range nested {
		c, err := s.countOne(ctx, n, depth+1)
		if err != nil {
			s.logger.Debug("nested sitemap unreadable", "url", n, "err", err)
			continue
		}
		count += c
		if count >= maxSitemapEntries {
			return maxSitemapEntries, nil
		}
	}
	return count, nil
}
