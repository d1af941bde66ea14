package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/madeira-labs/concorrente/internal/credentials"
	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/metrics"
	"github.com/madeira-labs/concorrente/internal/report"
	"github.com/madeira-labs/concorrente/internal/scrapejob"
	"github.com/madeira-labs/concorrente/internal/serp"
	"github.com/madeira-labs/concorrente/internal/storage"
	"github.com/madeira-labs/concorrente/internal/vision"
	"github.com/madeira-labs/concorrente/internal/webintel"
)

// Config wires provider adapters into a Controller. Nil adapters disable
// their phase: the phase logs a warning and degrades instead of failing, so a
// host can run with any subset of credentials configured.
type Config struct {
	Credentials *credentials.Config
	// Search is the provider chain for the web-search phase. Nil builds one
	// from Credentials; a chain with no available provider degrades the phase
	// to simulated data.
	Search *serp.Chain
	// Resolver drives profile scraping. Nil leaves scraping contributions
	// empty.
	Resolver *scrapejob.Resolver
	// Vision analyzes scraped media. Nil leaves visual analysis empty.
	Vision *vision.Analyzer
	// Recommender closes the report. Nil builds one without a generative
	// client, so it always uses the deterministic template.
	Recommender *report.Recommender
	// Inspector snapshots competitor websites discovered by the search phase.
	// Optional.
	Inspector *webintel.Inspector
	// Storage archives completed reports. Optional; archiving failures are
	// logged, never fatal.
	Storage storage.Backend

	// Observer is invoked synchronously after every status mutation.
	Observer Observer
	Logger   *slog.Logger

	// MaxConcurrent bounds in-flight media analyses. Zero means 3.
	MaxConcurrent int
	// BatchDelay is the pause between analysis batches. Zero means 1 second.
	BatchDelay time.Duration
	// PostsLimit caps scraped posts per competitor. Zero means 12.
	PostsLimit int
}

// Controller runs the research pipeline. One run at a time; Execute replaces
// all run state wholesale.
type Controller struct {
	creds       *credentials.Config
	search      *serp.Chain
	resolver    *scrapejob.Resolver
	vision      *vision.Analyzer
	recommender *report.Recommender
	inspector   *webintel.Inspector
	store       storage.Backend
	observer    Observer
	logger      *slog.Logger

	maxConcurrent int
	batchDelay    time.Duration
	postsLimit    int

	aborted atomic.Bool

	mu     sync.Mutex
	status *Status
}

// New creates a Controller.
func New(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Search == nil {
		cfg.Search = serp.NewChain(serp.ChainConfig{
			Credentials: cfg.Credentials,
			Logger:      cfg.Logger,
		})
	}
	if cfg.Recommender == nil {
		cfg.Recommender = report.NewRecommender(nil, cfg.Logger)
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = time.Second
	}
	if cfg.PostsLimit <= 0 {
		cfg.PostsLimit = 12
	}
	return &Controller{
		creds:         cfg.Credentials,
		search:        cfg.Search,
		resolver:      cfg.Resolver,
		vision:        cfg.Vision,
		recommender:   cfg.Recommender,
		inspector:     cfg.Inspector,
		store:         cfg.Storage,
		observer:      cfg.Observer,
		logger:        cfg.Logger,
		maxConcurrent: cfg.MaxConcurrent,
		batchDelay:    cfg.BatchDelay,
		postsLimit:    cfg.PostsLimit,
		status:        newStatus(),
	}
}

// Abort requests cooperative cancellation. The current run stops launching
// new work at the next checkpoint; remote jobs already submitted are not
// force-aborted. Calling Abort with no run in progress is harmless.
func (c *Controller) Abort() {
	c.aborted.Store(true)
}

// Status returns a snapshot of the current run state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.snapshot()
}

// runState carries intermediate data between phases of one execution.
type runState struct {
	entityName string
	niche      string
	records    []intel.CompetitorRecord
	profiles   map[int]intel.SocialProfile // record index -> scraped profile
	searchResp *serp.Response              // nil when the search phase degraded
	analysis   intel.NicheAnalysis
	recs       intel.StrategicRecommendations
}

// Execute runs the full pipeline and returns the report. Partial provider
// failures degrade individual phases and never fail the call; cancellation
// (via Abort or ctx) returns the partially populated report without error.
// The returned report always holds one competitor record per input name, in
// input order.
func (c *Controller) Execute(ctx context.Context, entityName, niche string, competitorNames []string) (*intel.ResearchReport, error) {
	c.aborted.Store(false)
	c.mu.Lock()
	c.status = newStatus()
	c.mu.Unlock()

	run := &runState{
		entityName: entityName,
		niche:      niche,
		records:    make([]intel.CompetitorRecord, len(competitorNames)),
		profiles:   make(map[int]intel.SocialProfile),
	}
	for i, name := range competitorNames {
		run.records[i] = intel.CompetitorRecord{Name: name}
	}

	c.update(func(s *Status) { s.Progress = 10 })
	c.log(SeverityInfo, fmt.Sprintf("Iniciando pesquisa para %q no nicho %q (%d concorrentes)",
		entityName, niche, len(competitorNames)))

	phases := []struct {
		Phase Phase
		Run   func(context.Context, *runState)
	}{
		{PhaseWebSearch, c.phaseWebSearch},
		{PhaseSocialScraping, c.phaseSocialScraping},
		{PhaseImageAnalysis, c.phaseImageAnalysis},
		{PhaseDataProcessing, c.phaseDataProcessing},
		{PhaseRecommendations, c.phaseRecommendations},
	}

	for i, p := range phases {
		if c.cancelled(ctx) {
			return c.finishCancelled(ctx, run), nil
		}

		checkpoint := workPhases[i].Checkpoint
		c.update(func(s *Status) {
			s.Phase = p.Phase
			ps := s.Phases[p.Phase]
			ps.State = SubRunning
			s.Phases[p.Phase] = ps
		})

		start := time.Now()
		p.Run(ctx, run)
		metrics.ObservePhase(string(p.Phase), time.Since(start))

		c.update(func(s *Status) {
			ps := s.Phases[p.Phase]
			if ps.State == SubRunning {
				ps.State = SubCompleted
				ps.Progress = 100
			}
			s.Phases[p.Phase] = ps
			s.Progress = checkpoint
		})
	}

	rep := c.buildReport(run)

	now := time.Now()
	c.update(func(s *Status) {
		s.Phase = PhaseIdle
		s.Progress = 100
		s.FinishedAt = &now
	})
	c.log(SeveritySuccess, "Pesquisa concluída")

	c.archive(ctx, rep)
	return rep, nil
}

// finishCancelled closes the run after a cancellation checkpoint fired. The
// partially populated report is still returned to the caller.
func (c *Controller) finishCancelled(ctx context.Context, run *runState) *intel.ResearchReport {
	c.log(SeverityWarning, "Pesquisa cancelada pelo usuário; relatório parcial disponível")
	now := time.Now()
	c.update(func(s *Status) {
		s.Phase = PhaseIdle
		s.FinishedAt = &now
	})
	c.logger.Info("pipeline cancelled", "entity", run.entityName)
	return c.buildReport(run)
}

func (c *Controller) buildReport(run *runState) *intel.ResearchReport {
	return &intel.ResearchReport{
		ID:              uuid.NewString(),
		EntityName:      run.entityName,
		Niche:           run.niche,
		GeneratedAt:     time.Now(),
		Competitors:     run.records,
		NicheAnalysis:   run.analysis,
		Recommendations: run.recs,
	}
}

// archive saves the finished report when a backend is configured. Failures
// only warn; the caller already has the report in hand.
func (c *Controller) archive(ctx context.Context, rep *intel.ResearchReport) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, rep); err != nil {
		c.logger.Warn("report archive failed", "report_id", rep.ID, "err", err)
	}
}

// cancelled reports whether the run should stop launching new work.
func (c *Controller) cancelled(ctx context.Context) bool {
	return c.aborted.Load() || ctx.Err() != nil
}

// update applies a mutation under the status lock and notifies the observer
// with a snapshot.
func (c *Controller) update(mutate func(*Status)) {
	c.mu.Lock()
	mutate(c.status)
	snap := c.status.snapshot()
	observer := c.observer
	c.mu.Unlock()

	if observer != nil {
		observer(snap)
	}
}

// log appends to the run log and notifies the observer.
func (c *Controller) log(severity Severity, msg string) {
	c.update(func(s *Status) {
		s.Log = append(s.Log, LogEntry{Time: time.Now(), Severity: severity, Message: msg})
	})
}

// failPhase marks the phase failed with a message. The run still advances.
func (c *Controller) failPhase(phase Phase, msg string) {
	c.update(func(s *Status) {
		ps := s.Phases[phase]
		ps.State = SubFailed
		ps.Message = msg
		s.Phases[phase] = ps
	})
	c.log(SeverityError, msg)
}

// skipPhase marks a credential-degraded phase completed with an explanation.
func (c *Controller) skipPhase(phase Phase, msg string) {
	c.update(func(s *Status) {
		ps := s.Phases[phase]
		ps.State = SubCompleted
		ps.Progress = 100
		ps.Message = msg
		s.Phases[phase] = ps
	})
	c.log(SeverityWarning, msg)
}

func (c *Controller) phaseProgress(phase Phase, completed, total int) {
	if total == 0 {
		return
	}
	c.update(func(s *Status) {
		ps := s.Phases[phase]
		ps.Progress = completed * 100 / total
		s.Phases[phase] = ps
	})
}
