// Package intel defines the shared data model for a competitive research run:
// the per-competitor records accumulated by the pipeline and the final report
// returned to the host application.
package intel

import "time"

// SocialPost is a single scraped media item from a competitor profile.
type SocialPost struct {
	ID             string    `json:"id"`
	ShortCode      string    `json:"short_code,omitempty"`
	Type           string    `json:"type"` // "Image", "Video" or "Sidecar" (carousel)
	Caption        string    `json:"caption,omitempty"`
	Hashtags       []string  `json:"hashtags,omitempty"`
	LikesCount     int       `json:"likes_count"`
	CommentsCount  int       `json:"comments_count"`
	VideoViewCount int       `json:"video_view_count,omitempty"`
	DisplayURL     string    `json:"display_url,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// IsVideo reports whether the post is a video.
func (p SocialPost) IsVideo() bool { return p.Type == "Video" }

// IsCarousel reports whether the post is a multi-image carousel.
func (p SocialPost) IsCarousel() bool { return p.Type == "Sidecar" }

// SocialProfile is a scraped social profile with its recent posts.
type SocialProfile struct {
	Username       string       `json:"username"`
	FullName       string       `json:"full_name,omitempty"`
	Biography      string       `json:"biography,omitempty"`
	ProfileURL     string       `json:"profile_url,omitempty"`
	ExternalURL    string       `json:"external_url,omitempty"`
	FollowersCount int          `json:"followers_count"`
	FollowsCount   int          `json:"follows_count"`
	PostsCount     int          `json:"posts_count"`
	Verified       bool         `json:"verified"`
	Posts          []SocialPost `json:"posts,omitempty"`
}

// PostingCadence describes how often a competitor publishes.
type PostingCadence struct {
	PostsPerWeek   float64 `json:"posts_per_week"`
	MostActiveDay  string  `json:"most_active_day,omitempty"`
	MostActiveHour int     `json:"most_active_hour,omitempty"`
}

// Metrics holds the aggregated numbers derived for one competitor.
type Metrics struct {
	FollowersCount int            `json:"followers_count"`
	PostsCount     int            `json:"posts_count"`
	EngagementRate float64        `json:"engagement_rate"`
	Cadence        PostingCadence `json:"cadence"`
}

// WebsiteIntel summarizes what the snapshot phase learned about a
// competitor's website. All fields stay zero when the site could not be
// inspected.
type WebsiteIntel struct {
	Title        string            `json:"title,omitempty"`
	Description  string            `json:"description,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
	SitemapPages int               `json:"sitemap_pages,omitempty"`
	Blocked      bool              `json:"blocked,omitempty"`
	BlockSource  string            `json:"block_source,omitempty"` // e.g. "Cloudflare"
}

// CompetitorRecord accumulates everything the pipeline learns about one
// competitor. One record exists per input name, in input order, for the whole
// run; phases enrich it in place and never remove it. Fields stay unset when
// the corresponding phase failed or was skipped.
type CompetitorRecord struct {
	Name           string                `json:"name"`
	Website        string                `json:"website,omitempty"`
	SocialProfiles map[string]string     `json:"social_profiles,omitempty"` // network -> profile URL
	Metrics        *Metrics              `json:"metrics,omitempty"`
	VisualAnalysis *VisualAnalysisReport `json:"visual_analysis,omitempty"`
	Posts          []SocialPost          `json:"posts,omitempty"`
	WebsiteIntel   *WebsiteIntel         `json:"website_intel,omitempty"`
}

// VisualAnalysisResult is the structured outcome of analyzing one media item.
// Immutable once produced.
type VisualAnalysisResult struct {
	MediaURL       string   `json:"media_url,omitempty"`
	DominantColors []string `json:"dominant_colors,omitempty"`
	Style          string   `json:"style,omitempty"`
	Composition    string   `json:"composition,omitempty"`
	HasText        bool     `json:"has_text"`
	HasProduct     bool     `json:"has_product"`
	HasPerson      bool     `json:"has_person"`
	QualityScore   int      `json:"quality_score"` // 1..10
	Suggestions    string   `json:"suggestions,omitempty"`
}

// RankedTag is a frequency-ranked label with its share of the analyzed items.
type RankedTag struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// VisualAnalysisReport aggregates the per-item results for one competitor.
type VisualAnalysisReport struct {
	ItemsAnalyzed   int         `json:"items_analyzed"`
	TopColors       []RankedTag `json:"top_colors,omitempty"`
	TopStyles       []RankedTag `json:"top_styles,omitempty"`
	TopCompositions []RankedTag `json:"top_compositions,omitempty"`
	TextPercent     float64     `json:"text_percent"`
	ProductPercent  float64     `json:"product_percent"`
	PersonPercent   float64     `json:"person_percent"`
	AverageQuality  float64     `json:"average_quality"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// Market size buckets, classified from summed follower counts.
const (
	MarketSmall  = "pequeno"
	MarketMedium = "medio"
	MarketLarge  = "grande"
)

// NicheAnalysis is the niche-level section of the final report.
// Simulated is true when the web-search phase had no usable provider and the
// trends were fabricated from a deterministic template.
type NicheAnalysis struct {
	Trends          []string `json:"trends,omitempty"`
	PopularHashtags []string `json:"popular_hashtags,omitempty"`
	ContentGaps     []string `json:"content_gaps,omitempty"`
	MarketSize      string   `json:"market_size"`
	Simulated       bool     `json:"simulated,omitempty"`
}

// StrategicPath is one ranked strategic option.
type StrategicPath struct {
	Rank      int    `json:"rank"`
	Title     string `json:"title"`
	Rationale string `json:"rationale,omitempty"`
}

// StrategicRecommendations is the report's closing section. Generated is true
// when a generative provider produced it; the deterministic fallback fills the
// identical shape, so consumers never need to branch on the source.
type StrategicRecommendations struct {
	Summary        string          `json:"summary,omitempty"`
	StrategicPaths []StrategicPath `json:"strategic_paths,omitempty"`
	ContentTypes   []string        `json:"content_types,omitempty"`
	UrgentActions  []string        `json:"urgent_actions,omitempty"`
	LongTermGoals  []string        `json:"long_term_goals,omitempty"`
	Generated      bool            `json:"generated"`
}

// ResearchReport is the sole externally visible output of a pipeline run.
// Immutable once returned. Competitors holds exactly one record per input
// competitor name, in input order, regardless of downstream failures.
type ResearchReport struct {
	ID              string                   `json:"id"`
	EntityName      string                   `json:"entity_name"`
	Niche           string                   `json:"niche"`
	GeneratedAt     time.Time                `json:"generated_at"`
	Competitors     []CompetitorRecord       `json:"competitors"`
	NicheAnalysis   NicheAnalysis            `json:"niche_analysis"`
	Recommendations StrategicRecommendations `json:"recommendations"`
}
