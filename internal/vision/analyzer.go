package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/llm"
	"github.com/madeira-labs/concorrente/internal/metrics"
)

// Analyzer produces a structured VisualAnalysisResult for one media item by
// downloading it and asking the vision model about it.
type Analyzer struct {
	llm    llm.Client
	http   *resty.Client
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(client llm.Client, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		llm:    client,
		http:   resty.New().SetTimeout(30 * time.Second),
		logger: logger,
	}
}

const analysisPrompt = `You are analyzing a social media image for competitive research in the %q niche.
Return a JSON object with exactly these fields:
{"dominant_colors": [up to 3 color names], "style": one of "minimalist"|"vibrant"|"professional"|"casual"|"luxury",
"composition": one of "product-focus"|"lifestyle"|"text-overlay"|"portrait"|"flat-lay",
"has_text": bool, "has_product": bool, "has_person": bool,
"quality_score": integer 1-10, "suggestions": short improvement advice}`

// AnalyzeMedia downloads the post's media and runs the vision analysis.
func (a *Analyzer) AnalyzeMedia(ctx context.Context, post intel.SocialPost, niche string) (intel.VisualAnalysisResult, error) {
	var zero intel.VisualAnalysisResult

	if post.DisplayURL == "" {
		return zero, fmt.Errorf("post %s has no media url", post.ID)
	}

	data, mimeType, err := a.download(ctx, post.DisplayURL)
	if err != nil {
		metrics.VisionAnalysesTotal.WithLabelValues("download_error").Inc()
		return zero, fmt.Errorf("download media: %w", err)
	}

	raw, err := a.llm.AnalyzeImage(ctx, fmt.Sprintf(analysisPrompt, niche), mimeType, data)
	if err != nil {
		metrics.VisionAnalysesTotal.WithLabelValues("error").Inc()
		return zero, fmt.Errorf("vision analysis: %w", err)
	}

	var parsed struct {
		DominantColors []string `json:"dominant_colors"`
		Style          string   `json:"style"`
		Composition    string   `json:"composition"`
		HasText        bool     `json:"has_text"`
		HasProduct     bool     `json:"has_product"`
		HasPerson      bool     `json:"has_person"`
		QualityScore   int      `json:"quality_score"`
		Suggestions    string   `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		metrics.VisionAnalysesTotal.WithLabelValues("parse_error").Inc()
		return zero, fmt.Errorf("parse vision response: %w", err)
	}

	metrics.VisionAnalysesTotal.WithLabelValues("ok").Inc()
	return intel.VisualAnalysisResult{
		MediaURL:       post.DisplayURL,
		DominantColors: parsed.DominantColors,
		Style:          parsed.Style,
		Composition:    parsed.Composition,
		HasText:        parsed.HasText,
		HasProduct:     parsed.HasProduct,
		HasPerson:      parsed.HasPerson,
		QualityScore:   clampScore(parsed.QualityScore),
		Suggestions:    parsed.Suggestions,
	}, nil
}

func (a *Analyzer) download(ctx context.Context, url string) ([]byte, string, error) {
	resp, err := a.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode())
	}

	mimeType := resp.Header().Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return resp.Body(), mimeType, nil
}

func clampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
