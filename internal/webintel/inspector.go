package webintel

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/metrics"
)

// socialHosts maps link hostnames to the network name recorded on the
// competitor.
var socialHosts = map[string]string{
	"instagram.com": "instagram",
	"facebook.com":  "facebook",
	"tiktok.com":    "tiktok",
	"youtube.com":   "youtube",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"pinterest.com": "pinterest",
}

// Inspector produces a WebsiteIntel snapshot for a competitor's site.
type Inspector struct {
	fetcher *Fetcher
	sampler *SitemapSampler
	logger  *slog.Logger
}

// NewInspector creates an Inspector sharing one fetcher across homepage,
// robots.txt and sitemap requests.
func NewInspector(fetcher *Fetcher, logger *slog.Logger) *Inspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inspector{
		fetcher: fetcher,
		sampler: NewSitemapSampler(fetcher, logger),
		logger:  logger,
	}
}

// Inspect fetches the site's homepage and assembles the snapshot. It always
// returns a snapshot; on failure the snapshot is empty except for block
// information, and the problem is logged.
func (in *Inspector) Inspect(ctx context.Context, website string) *intel.WebsiteIntel {
	snap := &intel.WebsiteIntel{}

	site, err := normalizeSite(website)
	if err != nil {
		in.logger.Warn("invalid competitor website, skipping snapshot", "website", website, "err", err)
		return snap
	}

	page, err := in.fetcher.Fetch(ctx, site)
	if err != nil {
		metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		in.logger.Warn("snapshot fetch aborted", "website", site, "err", err)
		return snap
	}

	if blocked, src := DetectBlock(page); blocked {
		metrics.SnapshotFetchesTotal.WithLabelValues("blocked").Inc()
		in.logger.Warn("competitor site blocked the snapshot", "website", site, "source", src)
		snap.Blocked = true
		snap.BlockSource = src
		return snap
	}

	if !page.OK() {
		metrics.SnapshotFetchesTotal.WithLabelValues("error").Inc()
		in.logger.Warn("snapshot fetch failed", "website", site, "status", page.StatusCode, "err", page.Err)
		return snap
	}
	metrics.SnapshotFetchesTotal.WithLabelValues("ok").Inc()

	in.extractMetadata(page, snap)

	if n, err := in.sampler.CountPages(ctx, site); err != nil {
		in.logger.Debug("sitemap sampling failed", "website", site, "err", err)
	} else {
		snap.SitemapPages = n
	}

	return snap
}

func (in *Inspector) extractMetadata(page *Page, snap *intel.WebsiteIntel) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		in.logger.Debug("homepage not parseable as HTML", "url", page.URL, "err", err)
		return
	}

	snap.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		snap.Description = strings.TrimSpace(desc)
	}

	links := map[string]string{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil || u.Host == "" {
			return
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if network, ok := socialHosts[host]; ok {
			if _, seen := links[network]; !seen {
				links[network] = u.String()
			}
		}
	})
	if len(links) > 0 {
		snap.SocialLinks = links
	}
}

// normalizeSite turns user-entered website values into a fetchable URL.
func normalizeSite(website string) (string, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return "", fmt.Errorf("empty website")
	}
	if !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", website)
	}
	return u.String(), nil
}
