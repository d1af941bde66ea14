package report

import (
	"fmt"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/serp"
)

// BuildNicheAnalysis assembles the niche-level report section. Trends come
// from the search response when the search phase ran; when it was skipped for
// lack of credentials the caller passes nil and gets clearly labeled
// simulated trends instead, so the section is never empty.
func BuildNicheAnalysis(niche string, records []intel.CompetitorRecord, search *serp.Response) intel.NicheAnalysis {
	analysis := intel.NicheAnalysis{
		PopularHashtags: PopularHashtags(records, 10),
		ContentGaps:     ContentGaps(records),
		MarketSize:      MarketSize(records),
	}

	if search == nil {
		analysis.Simulated = true
		analysis.Trends = simulatedTrends(niche)
		return analysis
	}

	analysis.Trends = trendsFromSearch(search)
	if len(analysis.Trends) == 0 {
		analysis.Simulated = true
		analysis.Trends = simulatedTrends(niche)
	}
	return analysis
}

// trendsFromSearch prefers related queries, falling back to top result titles.
func trendsFromSearch(resp *serp.Response) []string {
	if len(resp.RelatedQueries) > 0 {
		n := len(resp.RelatedQueries)
		if n > 5 {
			n = 5
		}
		return resp.RelatedQueries[:n]
	}

	var trends []string
	for _, r := range resp.Results {
		if r.Title == "" {
			continue
		}
		trends = append(trends, r.Title)
		if len(trends) == 5 {
			break
		}
	}
	return trends
}

// simulatedTrends fabricates placeholder trends from a fixed template. The
// "[simulado]" prefix makes the origin recognizable downstream.
func simulatedTrends(niche string) []string {
	return []string{
		fmt.Sprintf("[simulado] Crescimento de conteúdo em vídeo no nicho de %s", niche),
		fmt.Sprintf("[simulado] Micro-influenciadores ganhando espaço em %s", niche),
		fmt.Sprintf("[simulado] Público de %s buscando conteúdo educativo", niche),
	}
}
