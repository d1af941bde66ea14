// Package report synthesizes the final research report: derived metrics over
// the accumulated competitor records, niche-level analysis, and strategic
// recommendations with a deterministic fallback when no generative provider
// is configured.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/madeira-labs/concorrente/internal/intel"
)

// Follower-sum thresholds for the three market-size buckets.
const (
	marketMediumThreshold = 100_000
	marketLargeThreshold  = 1_000_000
)

// EngagementRate computes mean (likes+comments) per post as a percentage of
// the follower count. Zero followers or zero posts yields 0, never NaN.
func EngagementRate(posts []intel.SocialPost, followers int) float64 {
	if followers == 0 || len(posts) == 0 {
		return 0
	}
	var interactions int
	for _, p := range posts {
		interactions += p.LikesCount + p.CommentsCount
	}
	mean := float64(interactions) / float64(len(posts))
	return mean / float64(followers) * 100
}

// Cadence derives posting frequency from the observed post timestamps.
// Fewer than two timestamped posts yields a zero cadence with no
// most-active-day or hour.
func Cadence(posts []intel.SocialPost) intel.PostingCadence {
	var stamped []intel.SocialPost
	for _, p := range posts {
		if !p.Timestamp.IsZero() {
			stamped = append(stamped, p)
		}
	}
	if len(stamped) < 2 {
		return intel.PostingCadence{}
	}

	oldest, newest := stamped[0].Timestamp, stamped[0].Timestamp
	dayCounts := map[time.Weekday]int{}
	hourCounts := map[int]int{}
	for _, p := range stamped {
		if p.Timestamp.Before(oldest) {
			oldest = p.Timestamp
		}
		if p.Timestamp.After(newest) {
			newest = p.Timestamp
		}
		dayCounts[p.Timestamp.Weekday()]++
		hourCounts[p.Timestamp.Hour()]++
	}

	span := newest.Sub(oldest)
	weeks := span.Hours() / (24 * 7)
	if weeks < 1 {
		weeks = 1
	}

	return intel.PostingCadence{
		PostsPerWeek:   float64(len(stamped)) / weeks,
		MostActiveDay:  topWeekday(dayCounts).String(),
		MostActiveHour: topHour(hourCounts),
	}
}

func topWeekday(counts map[time.Weekday]int) time.Weekday {
	best, bestCount := time.Sunday, -1
	for d := time.Sunday; d <= time.Saturday; d++ {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func topHour(counts map[int]int) int {
	best, bestCount := 0, -1
	for h := 0; h < 24; h++ {
		if counts[h] > bestCount {
			best, bestCount = h, counts[h]
		}
	}
	return best
}

// MarketSize classifies the niche by summed follower counts across all
// competitors. Absent metrics count as zero, so a credential-less run
// classifies as the small bucket.
func MarketSize(records []intel.CompetitorRecord) string {
	var total int
	for _, r := range records {
		if r.Metrics != nil {
			total += r.Metrics.FollowersCount
		}
	}
	switch {
	case total >= marketLargeThreshold:
		return intel.MarketLarge
	case total >= marketMediumThreshold:
		return intel.MarketMedium
	default:
		return intel.MarketSmall
	}
}

// ContentGaps applies fixed thresholds over the competitors' observed posts
// and returns canned gap statements. Rule-based by design of the product, not
// a learned model.
func ContentGaps(records []intel.CompetitorRecord) []string {
	var total, carousels, videos, weekend int
	for _, r := range records {
		for _, p := range r.Posts {
			total++
			if p.IsCarousel() {
				carousels++
			}
			if p.IsVideo() {
				videos++
			}
			if !p.Timestamp.IsZero() {
				switch p.Timestamp.Weekday() {
				case time.Saturday, time.Sunday:
					weekend++
				}
			}
		}
	}
	if total == 0 {
		return nil
	}

	var gaps []string
	if float64(videos)/float64(total) < 0.2 {
		gaps = append(gaps, "Video content is underused in this niche; short-form video is an open lane.")
	}
	if float64(carousels)/float64(total) < 0.15 {
		gaps = append(gaps, "Few competitors publish carousels; multi-image educational posts are a gap.")
	}
	if weekend == 0 {
		gaps = append(gaps, "No competitor posts on weekends; weekend publishing faces no competition.")
	}
	return gaps
}

// PopularHashtags returns the most frequent hashtags across all competitor
// posts, normalized to lowercase, limited to topN.
func PopularHashtags(records []intel.CompetitorRecord, topN int) []string {
	freq := map[string]int{}
	for _, r := range records {
		for _, p := range r.Posts {
			for _, h := range p.Hashtags {
				h = strings.ToLower(strings.TrimPrefix(h, "#"))
				if h != "" {
					freq[h]++
				}
			}
		}
	}
	if len(freq) == 0 {
		return nil
	}

	tags := make([]string, 0, len(freq))
	for t := range freq {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if freq[tags[i]] != freq[tags[j]] {
			return freq[tags[i]] > freq[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if topN > 0 && len(tags) > topN {
		tags = tags[:topN]
	}
	for i, t := range tags {
		tags[i] = "#" + t
	}
	return tags
}

// CompetitorMetrics fills the Metrics block for one record from its scraped
// profile and posts.
func CompetitorMetrics(profile intel.SocialProfile) *intel.Metrics {
	return &intel.Metrics{
		FollowersCount: profile.FollowersCount,
		PostsCount:     profile.PostsCount,
		EngagementRate: EngagementRate(profile.Posts, profile.FollowersCount),
		Cadence:        Cadence(profile.Posts),
	}
}

// describeCompetitor renders a one-line summary used in prompts and fallback
// text.
func describeCompetitor(r intel.CompetitorRecord) string {
	if r.Metrics == nil {
		return fmt.Sprintf("%s (no metrics collected)", r.Name)
	}
	return fmt.Sprintf("%s: %d followers, %.2f%% engagement, %.1f posts/week",
		r.Name, r.Metrics.FollowersCount, r.Metrics.EngagementRate, r.Metrics.Cadence.PostsPerWeek)
}
