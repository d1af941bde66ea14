package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/llm"
)

// Recommender produces the strategic-recommendations section. With a
// generative client configured it builds a structured prompt from the
// aggregated data and parses a structured reply; on any failure it falls back
// to a deterministic template over the same data. Both paths fill the
// identical shape, so callers never branch on the source.
type Recommender struct {
	llm    llm.Client // nil disables the generative path
	logger *slog.Logger
}

// NewRecommender creates a Recommender. A nil client is valid and means the
// fallback path is always used.
func NewRecommender(client llm.Client, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{llm: client, logger: logger}
}

// Recommend synthesizes recommendations for the accumulated run data.
// It never returns an error: synthesis provider failures degrade to the
// deterministic template.
func (r *Recommender) Recommend(ctx context.Context, entityName, niche string, records []intel.CompetitorRecord, analysis intel.NicheAnalysis) intel.StrategicRecommendations {
	if r.llm == nil {
		return Fallback(entityName, niche, records, analysis)
	}

	recs, err := r.generate(ctx, entityName, niche, records, analysis)
	if err != nil {
		r.logger.Warn("generative recommendations failed, using template", "err", err)
		return Fallback(entityName, niche, records, analysis)
	}
	return recs
}

func (r *Recommender) generate(ctx context.Context, entityName, niche string, records []intel.CompetitorRecord, analysis intel.NicheAnalysis) (intel.StrategicRecommendations, error) {
	var zero intel.StrategicRecommendations

	raw, err := r.llm.GenerateJSON(ctx, buildPrompt(entityName, niche, records, analysis))
	if err != nil {
		return zero, err
	}

	var parsed struct {
		Summary        string `json:"summary"`
		StrategicPaths []struct {
			Title     string `json:"title"`
			Rationale string `json:"rationale"`
		} `json:"strategic_paths"`
		ContentTypes  []string `json:"content_types"`
		UrgentActions []string `json:"urgent_actions"`
		LongTermGoals []string `json:"long_term_goals"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return zero, fmt.Errorf("parse recommendations: %w", err)
	}
	if parsed.Summary == "" && len(parsed.StrategicPaths) == 0 {
		return zero, fmt.Errorf("model returned an empty recommendation set")
	}

	out := intel.StrategicRecommendations{
		Summary:       parsed.Summary,
		ContentTypes:  parsed.ContentTypes,
		UrgentActions: parsed.UrgentActions,
		LongTermGoals: parsed.LongTermGoals,
		Generated:     true,
	}
	for i, p := range parsed.StrategicPaths {
		out.StrategicPaths = append(out.StrategicPaths, intel.StrategicPath{
			Rank:      i + 1,
			Title:     p.Title,
			Rationale: p.Rationale,
		})
	}
	return out, nil
}

func buildPrompt(entityName, niche string, records []intel.CompetitorRecord, analysis intel.NicheAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a social media strategist. %q operates in the %q niche (market size: %s).\n",
		entityName, niche, analysis.MarketSize)
	b.WriteString("Competitors researched:\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s\n", describeCompetitor(rec))
	}
	if len(analysis.Trends) > 0 {
		fmt.Fprintf(&b, "Observed trends: %s\n", strings.Join(analysis.Trends, "; "))
	}
	if len(analysis.ContentGaps) > 0 {
		fmt.Fprintf(&b, "Detected content gaps: %s\n", strings.Join(analysis.ContentGaps, "; "))
	}
	if len(analysis.PopularHashtags) > 0 {
		fmt.Fprintf(&b, "Popular hashtags: %s\n", strings.Join(analysis.PopularHashtags, " "))
	}
	b.WriteString(`Return a JSON object:
{"summary": narrative situation summary,
"strategic_paths": [{"title": ..., "rationale": ...}] ranked best first (max 3),
"content_types": [recommended content formats],
"urgent_actions": [actions for the next 30 days],
"long_term_goals": [goals for the next 12 months]}`)
	return b.String()
}

// Fallback fills the recommendation shape from the aggregated data without
// any generative call.
func Fallback(entityName, niche string, records []intel.CompetitorRecord, analysis intel.NicheAnalysis) intel.StrategicRecommendations {
	summary := fmt.Sprintf(
		"%s disputa o nicho de %s com %d concorrentes mapeados; o mercado é classificado como %s.",
		entityName, niche, len(records), analysis.MarketSize)

	paths := []intel.StrategicPath{
		{Rank: 1, Title: "Diferenciação por conteúdo", Rationale: "Explorar as lacunas de conteúdo detectadas antes dos concorrentes."},
		{Rank: 2, Title: "Consistência de publicação", Rationale: "Manter cadência regular supera a maioria dos perfis analisados."},
		{Rank: 3, Title: "Engajamento de comunidade", Rationale: "Responder comentários e criar conteúdo participativo eleva o alcance orgânico."},
	}

	contentTypes := []string{"Reels curtos", "Carrosséis educativos", "Bastidores"}
	urgent := []string{
		"Definir calendário editorial semanal",
		"Revisar a identidade visual do perfil",
	}
	for _, gap := range analysis.ContentGaps {
		urgent = append(urgent, "Aproveitar lacuna: "+gap)
		if len(urgent) == 4 {
			break
		}
	}

	goals := []string{
		fmt.Sprintf("Tornar-se referência de conteúdo no nicho de %s", niche),
		"Construir comunidade engajada acima da média dos concorrentes",
		"Diversificar formatos antes que o mercado sature",
	}

	return intel.StrategicRecommendations{
		Summary:        summary,
		StrategicPaths: paths,
		ContentTypes:   contentTypes,
		UrgentActions:  urgent,
		LongTermGoals:  goals,
		Generated:      false,
	}
}
