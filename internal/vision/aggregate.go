package vision

import (
	"fmt"
	"sort"

	"github.com/madeira-labs/concorrente/internal/intel"
)

// Aggregate folds per-item results into one competitor-level report:
// frequency-ranked colors, styles and compositions with their shares, boolean
// presence percentages, average quality and rule-based recommendations.
// Returns nil for an empty input.
func Aggregate(results []intel.VisualAnalysisResult) *intel.VisualAnalysisReport {
	if len(results) == 0 {
		return nil
	}

	n := len(results)
	colors := map[string]int{}
	styles := map[string]int{}
	compositions := map[string]int{}
	var textCount, productCount, personCount, qualitySum int

	for _, r := range results {
		for _, c := range r.DominantColors {
			colors[c]++
		}
		if r.Style != "" {
			styles[r.Style]++
		}
		if r.Composition != "" {
			compositions[r.Composition]++
		}
		if r.HasText {
			textCount++
		}
		if r.HasProduct {
			productCount++
		}
		if r.HasPerson {
			personCount++
		}
		qualitySum += r.QualityScore
	}

	report := &intel.VisualAnalysisReport{
		ItemsAnalyzed:   n,
		TopColors:       rankTags(colors, n, 5),
		TopStyles:       rankTags(styles, n, 3),
		TopCompositions: rankTags(compositions, n, 3),
		TextPercent:     pct(textCount, n),
		ProductPercent:  pct(productCount, n),
		PersonPercent:   pct(personCount, n),
		AverageQuality:  float64(qualitySum) / float64(n),
	}
	report.Recommendations = recommendations(report)
	return report
}

func rankTags(freq map[string]int, total, limit int) []intel.RankedTag {
	tags := make([]intel.RankedTag, 0, len(freq))
	for v, c := range freq {
		tags = append(tags, intel.RankedTag{Value: v, Count: c, Percent: pct(c, total)})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Value < tags[j].Value
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// recommendations derives advice from aggregate thresholds. Heuristic on
// purpose; the generative synthesis layer builds on top of this.
func recommendations(r *intel.VisualAnalysisReport) []string {
	var recs []string

	if r.AverageQuality < 6 {
		recs = append(recs, fmt.Sprintf(
			"Average visual quality is %.1f/10; invest in better lighting and editing.", r.AverageQuality))
	}
	if r.PersonPercent < 30 {
		recs = append(recs,
			"Fewer than a third of posts show people; human faces tend to raise engagement.")
	}
	if r.TextPercent > 70 {
		recs = append(recs,
			"Most posts carry text overlays; mix in clean visuals to avoid a cluttered feed.")
	}
	if len(r.TopStyles) == 1 {
		recs = append(recs, fmt.Sprintf(
			"Visual style is uniformly %q; occasional variation can reach new audiences.", r.TopStyles[0].Value))
	}
	return recs
}
