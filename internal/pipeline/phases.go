package pipeline

import (
	"context"
	"fmt"

	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/report"
	"github.com/madeira-labs/concorrente/internal/scrapejob"
	"github.com/madeira-labs/concorrente/internal/serp"
	"github.com/madeira-labs/concorrente/internal/vision"
)

// phaseWebSearch queries the provider chain for niche trends and a website
// per competitor. Without an available provider the phase completes with a
// warning and a nil search response, which downstream turns into simulated
// trend data.
func (c *Controller) phaseWebSearch(ctx context.Context, run *runState) {
	if !c.search.Enabled() {
		c.skipPhase(PhaseWebSearch,
			"Nenhum provedor de busca configurado; tendências serão simuladas")
		return
	}

	c.log(SeverityInfo, fmt.Sprintf("Buscando tendências do nicho %q via %s",
		run.niche, c.search.ActiveProvider()))

	resp, err := c.search.Search(ctx, "tendências "+run.niche, serp.Options{Limit: 10})
	if err != nil {
		c.logger.Warn("niche trend search failed", "niche", run.niche, "err", err)
		c.log(SeverityWarning, "Busca de tendências falhou; tendências serão simuladas")
	} else {
		run.searchResp = resp
	}

	total := len(run.records)
	for i := range run.records {
		if c.cancelled(ctx) {
			return
		}
		rec := &run.records[i]

		siteResp, err := c.search.Search(ctx, rec.Name+" site oficial", serp.Options{Limit: 3})
		if err != nil {
			c.logger.Warn("competitor website search failed", "competitor", rec.Name, "err", err)
			c.phaseProgress(PhaseWebSearch, i+1, total)
			continue
		}
		if len(siteResp.Results) > 0 {
			rec.Website = siteResp.Results[0].Link
			c.log(SeverityInfo, fmt.Sprintf("Site encontrado para %s: %s", rec.Name, rec.Website))
		}
		c.phaseProgress(PhaseWebSearch, i+1, total)
	}

	c.log(SeveritySuccess, "Pesquisa web concluída")
}

// phaseSocialScraping resolves each competitor's social profile through the
// two-tier resolver and snapshots discovered websites. A failed resolution
// costs only that competitor's contribution.
func (c *Controller) phaseSocialScraping(ctx context.Context, run *runState) {
	if c.resolver == nil || !c.creds.HasScraping() {
		c.skipPhase(PhaseSocialScraping,
			"Credenciais de scraping ausentes; perfis sociais não serão coletados")
		return
	}

	total := len(run.records)
	collected := 0
	for i := range run.records {
		if c.cancelled(ctx) {
			return
		}
		rec := &run.records[i]

		key := profileKey(rec.Name)
		items, err := c.resolver.Resolve(ctx, key, scrapejob.KindProfile,
			scrapejob.ResolveOptions{Limit: c.postsLimit})
		if err != nil {
			c.logger.Warn("profile resolution failed", "competitor", rec.Name, "err", err)
			c.log(SeverityError, fmt.Sprintf("Não foi possível coletar o perfil de %s", rec.Name))
			c.phaseProgress(PhaseSocialScraping, i+1, total)
			continue
		}

		profile, err := decodeProfile(items[0])
		if err != nil {
			c.logger.Warn("profile decode failed", "competitor", rec.Name, "err", err)
			c.phaseProgress(PhaseSocialScraping, i+1, total)
			continue
		}

		run.profiles[i] = profile
		rec.Posts = profile.Posts
		if rec.SocialProfiles == nil {
			rec.SocialProfiles = make(map[string]string)
		}
		profileURL := profile.ProfileURL
		if profileURL == "" {
			profileURL = "https://www.instagram.com/" + profile.Username + "/"
		}
		rec.SocialProfiles["instagram"] = profileURL
		if rec.Website == "" && profile.ExternalURL != "" {
			rec.Website = profile.ExternalURL
		}

		if c.inspector != nil && rec.Website != "" {
			rec.WebsiteIntel = c.inspector.Inspect(ctx, rec.Website)
		}

		collected++
		c.log(SeveritySuccess, fmt.Sprintf("Perfil de %s coletado (%d posts)",
			rec.Name, len(profile.Posts)))
		c.phaseProgress(PhaseSocialScraping, i+1, total)
	}

	if total > 0 && collected == 0 {
		c.failPhase(PhaseSocialScraping, "Nenhum perfil social pôde ser coletado")
	}
}

// phaseImageAnalysis runs the vision batch over each competitor's scraped
// media and aggregates the per-item results.
func (c *Controller) phaseImageAnalysis(ctx context.Context, run *runState) {
	if c.vision == nil || !c.creds.HasVision() {
		c.skipPhase(PhaseImageAnalysis,
			"Credenciais de visão ausentes; análise visual não será realizada")
		return
	}

	for i := range run.records {
		if c.cancelled(ctx) {
			return
		}
		rec := &run.records[i]

		posts := rec.Posts[:0:0]
		for _, p := range rec.Posts {
			if p.DisplayURL != "" {
				posts = append(posts, p)
			}
		}
		if len(posts) == 0 {
			continue
		}

		c.log(SeverityInfo, fmt.Sprintf("Analisando %d mídias de %s", len(posts), rec.Name))

		results := vision.AnalyzeBatch(ctx, posts,
			func(ctx context.Context, p intel.SocialPost) (intel.VisualAnalysisResult, error) {
				return c.vision.AnalyzeMedia(ctx, p, run.niche)
			},
			vision.BatchConfig{
				MaxConcurrent: c.maxConcurrent,
				BatchDelay:    c.batchDelay,
				OnProgress: func(completed, total int) {
					c.phaseProgress(PhaseImageAnalysis, completed, total)
				},
				Logger: c.logger,
			})

		rec.VisualAnalysis = vision.Aggregate(results)
		if rec.VisualAnalysis != nil {
			c.log(SeveritySuccess, fmt.Sprintf("Análise visual de %s: %d itens",
				rec.Name, rec.VisualAnalysis.ItemsAnalyzed))
		}
	}
}

// phaseDataProcessing derives per-competitor metrics and the niche-level
// analysis from everything collected so far. Pure computation; it cannot
// degrade.
func (c *Controller) phaseDataProcessing(ctx context.Context, run *runState) {
	for i := range run.records {
		profile, ok := run.profiles[i]
		if !ok {
			continue
		}
		run.records[i].Metrics = report.CompetitorMetrics(profile)
	}

	run.analysis = report.BuildNicheAnalysis(run.niche, run.records, run.searchResp)
	if run.analysis.Simulated {
		c.log(SeverityWarning, "Análise de nicho usando tendências simuladas")
	}
	c.log(SeveritySuccess, fmt.Sprintf("Métricas processadas; mercado classificado como %q",
		run.analysis.MarketSize))
}

// phaseRecommendations synthesizes the strategic closing section. The
// recommender degrades internally, so this phase never fails.
func (c *Controller) phaseRecommendations(ctx context.Context, run *runState) {
	run.recs = c.recommender.Recommend(ctx, run.entityName, run.niche, run.records, run.analysis)
	if run.recs.Generated {
		c.log(SeveritySuccess, "Recomendações estratégicas geradas")
	} else {
		c.log(SeverityInfo, "Recomendações estratégicas preenchidas por modelo determinístico")
	}
}
