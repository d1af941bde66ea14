//go:build integration

package test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/madeira-labs/concorrente/internal/credentials"
	"github.com/madeira-labs/concorrente/internal/fingerprint"
	"github.com/madeira-labs/concorrente/internal/pipeline"
	"github.com/madeira-labs/concorrente/internal/report"
	"github.com/madeira-labs/concorrente/internal/scrapejob"
	"github.com/madeira-labs/concorrente/internal/serp"
	"github.com/madeira-labs/concorrente/internal/storage"
	"github.com/madeira-labs/concorrente/internal/storage/jsonbackend"
	"github.com/madeira-labs/concorrente/internal/vision"
	"github.com/madeira-labs/concorrente/internal/webintel"
	"github.com/madeira-labs/concorrente/pkg/useragent"
)

// stubLLM answers both generative surfaces with canned JSON.
type stubLLM struct{}

func (stubLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return `{"summary": "Posicionar a marca no nicho com conteúdo em vídeo.",
		"strategic_paths": [
			{"title": "Investir em vídeos curtos", "rationale": "concorrentes focam em imagens"},
			{"title": "Ampliar presença no site", "rationale": "tráfego orgânico inexplorado"}
		],
		"content_types": ["reels", "carrossel"],
		"urgent_actions": ["publicar 3x por semana"],
		"long_term_goals": ["dobrar seguidores em 12 meses"]}`, nil
}

func (stubLLM) AnalyzeImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return `{"dominant_colors": ["azul", "branco"], "style": "professional",
		"composition": "product-focus", "has_text": false, "has_product": true,
		"has_person": false, "quality_score": 8, "suggestions": "boa iluminação"}`, nil
}

func (stubLLM) Close() error { return nil }

// newScrapeServer fakes the actor-run protocol: every submission succeeds
// immediately and polls resolve to a dataset holding one profile document.
func newScrapeServer(t *testing.T, imageURL string) *httptest.Server {
	t.Helper()

	profile := fmt.Sprintf(`[{
		"username": "lojax",
		"fullName": "Loja X Móveis",
		"url": "https://www.instagram.com/lojax/",
		"followersCount": 52000,
		"postsCount": 340,
		"latestPosts": [
			{"id": "p1", "type": "Image", "caption": "Novo sofá #moveis #design",
			 "likesCount": 900, "commentsCount": 40, "displayUrl": "%s/p1.jpg",
			 "timestamp": "2026-08-18T14:00:00Z"},
			{"id": "p2", "type": "Sidecar", "caption": "Coleção de inverno #moveis",
			 "likesCount": 1200, "commentsCount": 80, "displayUrl": "%s/p2.jpg",
			 "timestamp": "2026-08-25T10:00:00Z"}
		]
	}]`, imageURL, imageURL)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/acts/apify~instagram-scraper/runs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": {"id": "run-1", "status": "SUCCEEDED", "defaultDatasetId": "ds-1"}}`)
	})
	mux.HandleFunc("GET /v2/actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data": {"id": "run-1", "status": "SUCCEEDED", "defaultDatasetId": "ds-1"}}`)
	})
	mux.HandleFunc("GET /v2/datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, profile)
	})
	return httptest.NewServer(mux)
}

// newSiteServer fakes the competitor website the snapshot phase inspects.
func newSiteServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<title>Loja X — Móveis planejados</title>
			<meta name="description" content="Móveis sob medida">
		</head><body>
			<a href="https://www.instagram.com/lojax/">Instagram</a>
		</body></html>`)
	})
	return httptest.NewServer(mux)
}

func TestIntegration_FullPipelineRun(t *testing.T) {
	imageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	}))
	defer imageServer.Close()

	scrapeServer := newScrapeServer(t, imageServer.URL)
	defer scrapeServer.Close()

	siteServer := newSiteServer()
	defer siteServer.Close()

	searchServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"search_information": {"total_results": 120},
			"organic_results": [
				{"title": "Loja X", "link": "%s", "snippet": "móveis planejados", "position": 1}
			],
			"related_searches": [{"query": "móveis planejados tendências"}]
		}`, siteServer.URL)
	}))
	defer searchServer.Close()

	logger := slog.Default()

	serpProvider := serp.NewSerpAPI("test-key")
	serpProvider.SetBaseURL(searchServer.URL)

	apify := scrapejob.NewApifyClient("test-token")
	apify.SetBaseURL(scrapeServer.URL)
	resolver := scrapejob.NewResolver(scrapejob.ResolverConfig{
		Runner: scrapejob.NewRunner(scrapejob.RunnerConfig{
			API:            apify,
			Logger:         logger,
			SubmitAttempts: 1,
		}),
		Timeout:      10 * time.Second,
		PollInterval: 20 * time.Millisecond,
		Logger:       logger,
	})

	fetcher, err := webintel.NewFetcher(webintel.FetcherConfig{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
		UserAgents:  useragent.NewPool(nil),
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	store, err := jsonbackend.New(t.TempDir())
	if err != nil {
		t.Fatalf("jsonbackend.New: %v", err)
	}
	defer store.Close()

	ctrl := pipeline.New(pipeline.Config{
		Credentials: &credentials.Config{
			SerpAPIKey: "test-key",
			ApifyToken: "test-token",
			GeminiKey:  "test-gemini",
		},
		Search: serp.NewChain(serp.ChainConfig{
			Provider: serpProvider,
			Cache:    serp.NewCache(5 * time.Minute),
			Logger:   logger,
		}),
		Resolver:    resolver,
		Vision:      vision.NewAnalyzer(stubLLM{}, logger),
		Recommender: report.NewRecommender(stubLLM{}, logger),
		Inspector:   webintel.NewInspector(fetcher, logger),
		Storage:     store,
		Logger:      logger,
		BatchDelay:  time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rep, err := ctrl.Execute(ctx, "Minha Loja", "móveis planejados", []string{"Loja X"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(rep.Competitors) != 1 {
		t.Fatalf("expected 1 competitor record, got %d", len(rep.Competitors))
	}
	rec := rep.Competitors[0]

	if rec.Website != siteServer.URL {
		t.Errorf("website = %q, want %q", rec.Website, siteServer.URL)
	}
	if rec.SocialProfiles["instagram"] != "https://www.instagram.com/lojax/" {
		t.Errorf("instagram profile = %q", rec.SocialProfiles["instagram"])
	}
	if len(rec.Posts) != 2 {
		t.Errorf("expected 2 scraped posts, got %d", len(rec.Posts))
	}

	if rec.Metrics == nil {
		t.Fatal("expected derived metrics")
	}
	if rec.Metrics.FollowersCount != 52000 {
		t.Errorf("followers = %d, want 52000", rec.Metrics.FollowersCount)
	}
	if rec.Metrics.EngagementRate <= 0 {
		t.Errorf("engagement rate = %f, want > 0", rec.Metrics.EngagementRate)
	}

	if rec.VisualAnalysis == nil {
		t.Fatal("expected visual analysis")
	}
	if rec.VisualAnalysis.ItemsAnalyzed != 2 {
		t.Errorf("items analyzed = %d, want 2", rec.VisualAnalysis.ItemsAnalyzed)
	}

	if rec.WebsiteIntel == nil {
		t.Fatal("expected website snapshot")
	}
	if rec.WebsiteIntel.Title != "Loja X — Móveis planejados" {
		t.Errorf("site title = %q", rec.WebsiteIntel.Title)
	}

	if rep.NicheAnalysis.Simulated {
		t.Error("trends should come from the search provider, not the simulator")
	}
	if len(rep.NicheAnalysis.Trends) == 0 {
		t.Error("expected niche trends")
	}

	if !rep.Recommendations.Generated {
		t.Error("expected generative recommendations")
	}
	if len(rep.Recommendations.StrategicPaths) != 2 {
		t.Errorf("strategic paths = %d, want 2", len(rep.Recommendations.StrategicPaths))
	}

	status := ctrl.Status()
	if status.Phase != pipeline.PhaseIdle {
		t.Errorf("final phase = %q, want idle", status.Phase)
	}
	if status.Progress != 100 {
		t.Errorf("final progress = %d, want 100", status.Progress)
	}

	archived, err := store.Get(ctx, rep.ID)
	if err != nil {
		t.Fatalf("archived report not found: %v", err)
	}
	if archived.EntityName != "Minha Loja" {
		t.Errorf("archived entity = %q", archived.EntityName)
	}
}

func TestIntegration_DegradedRunWithoutProviders(t *testing.T) {
	store, err := jsonbackend.New(t.TempDir())
	if err != nil {
		t.Fatalf("jsonbackend.New: %v", err)
	}
	defer store.Close()

	ctrl := pipeline.New(pipeline.Config{
		Credentials: &credentials.Config{},
		Storage:     store,
	})

	rep, err := ctrl.Execute(context.Background(), "Minha Loja", "móveis", []string{"A", "B"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(rep.Competitors) != 2 {
		t.Fatalf("expected 2 competitor records, got %d", len(rep.Competitors))
	}
	if !rep.NicheAnalysis.Simulated {
		t.Error("expected simulated niche analysis without a search provider")
	}
	if rep.Recommendations.Generated {
		t.Error("expected deterministic recommendations without a generative provider")
	}

	reports, err := store.List(context.Background(), storage.Filter{EntityName: "Minha Loja"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("archived reports = %d, want 1", len(reports))
	}
}
