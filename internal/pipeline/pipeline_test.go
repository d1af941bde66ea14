package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madeira-labs/concorrente/internal/credentials"
	"github.com/madeira-labs/concorrente/internal/intel"
	"github.com/madeira-labs/concorrente/internal/scrapejob"
	"github.com/madeira-labs/concorrente/internal/vision"
)

// statusRecorder collects every observer snapshot.
type statusRecorder struct {
	mu        sync.Mutex
	snapshots []Status
}

func (r *statusRecorder) observe(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *statusRecorder) last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[len(r.snapshots)-1]
}

// sawPhaseRunning reports whether any snapshot had the phase in sub-state
// running.
func (r *statusRecorder) sawPhaseRunning(p Phase) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.snapshots {
		if s.Phases[p].State == SubRunning {
			return true
		}
	}
	return false
}

func TestExecuteWithoutAnyCredentials(t *testing.T) {
	rec := &statusRecorder{}
	c := New(Config{
		Credentials: &credentials.Config{},
		Observer:    rec.observe,
	})

	names := []string{"Concorrente A", "Concorrente B", "Concorrente C"}
	rep, err := c.Execute(context.Background(), "Minha Loja", "marcenaria", names)
	require.NoError(t, err)
	require.NotNil(t, rep)

	// One record per input name, in input order, even with every provider absent.
	require.Len(t, rep.Competitors, 3)
	for i, name := range names {
		assert.Equal(t, name, rep.Competitors[i].Name)
	}

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "Minha Loja", rep.EntityName)

	assert.True(t, rep.NicheAnalysis.Simulated)
	require.NotEmpty(t, rep.NicheAnalysis.Trends)
	assert.Contains(t, rep.NicheAnalysis.Trends[0], "[simulado]")
	assert.Equal(t, intel.MarketSmall, rep.NicheAnalysis.MarketSize)

	assert.False(t, rep.Recommendations.Generated)
	assert.NotEmpty(t, rep.Recommendations.Summary)
	assert.NotEmpty(t, rep.Recommendations.StrategicPaths)

	final := rec.last()
	assert.Equal(t, PhaseIdle, final.Phase)
	assert.Equal(t, 100, final.Progress)
	require.NotNil(t, final.FinishedAt)
	for _, p := range []Phase{PhaseWebSearch, PhaseSocialScraping, PhaseImageAnalysis, PhaseDataProcessing, PhaseRecommendations} {
		assert.Equal(t, SubCompleted, final.Phases[p].State, string(p))
	}
}

func TestExecuteProgressIsMonotonic(t *testing.T) {
	rec := &statusRecorder{}
	c := New(Config{Credentials: &credentials.Config{}, Observer: rec.observe})

	_, err := c.Execute(context.Background(), "Loja", "moda", []string{"A"})
	require.NoError(t, err)

	prev := 0
	for _, s := range rec.snapshots {
		assert.GreaterOrEqual(t, s.Progress, prev)
		prev = s.Progress
	}
	assert.Equal(t, 100, prev)
}

// profileAPI answers the scraping protocol instantly with one canned profile
// per direct lookup.
type profileAPI struct{}

func (profileAPI) Submit(ctx context.Context, spec scrapejob.Spec) (*scrapejob.Job, error) {
	return &scrapejob.Job{ID: "run", Status: scrapejob.StatusPending}, nil
}

func (profileAPI) Poll(ctx context.Context, jobID string) (*scrapejob.Job, error) {
	return &scrapejob.Job{ID: jobID, Status: scrapejob.StatusSucceeded, DatasetID: "ds"}, nil
}

func (profileAPI) FetchResults(ctx context.Context, job *scrapejob.Job) ([]json.RawMessage, error) {
	return []json.RawMessage{json.RawMessage(`{
		"username": "concorrente_a",
		"url": "https://www.instagram.com/concorrente_a/",
		"followersCount": 5000,
		"postsCount": 120,
		"latestPosts": [
			{"id": "1", "type": "Image", "caption": "novidade #moda", "likesCount": 100, "commentsCount": 10, "timestamp": "2026-08-04T09:00:00Z"},
			{"id": "2", "type": "Video", "likesCount": 200, "commentsCount": 30, "timestamp": "2026-08-11T09:00:00Z"}
		]
	}`)}, nil
}

func newFastResolver(api scrapejob.API) *scrapejob.Resolver {
	return scrapejob.NewResolver(scrapejob.ResolverConfig{
		Runner: scrapejob.NewRunner(scrapejob.RunnerConfig{
			API:            api,
			SubmitAttempts: 1,
			SubmitBackoff:  time.Millisecond,
		}),
		Timeout:      time.Second,
		PollInterval: time.Millisecond,
	})
}

func TestExecuteScrapingEnrichesRecords(t *testing.T) {
	c := New(Config{
		Credentials: &credentials.Config{ApifyToken: "tok"},
		Resolver:    newFastResolver(profileAPI{}),
	})

	rep, err := c.Execute(context.Background(), "Loja", "moda", []string{"Concorrente A"})
	require.NoError(t, err)
	require.Len(t, rep.Competitors, 1)

	got := rep.Competitors[0]
	assert.Equal(t, "https://www.instagram.com/concorrente_a/", got.SocialProfiles["instagram"])
	require.Len(t, got.Posts, 2)

	// Metrics are derived in the data-processing phase from the scraped profile.
	require.NotNil(t, got.Metrics)
	assert.Equal(t, 5000, got.Metrics.FollowersCount)
	assert.Equal(t, 120, got.Metrics.PostsCount)
	assert.InDelta(t, 3.4, got.Metrics.EngagementRate, 0.01)

	// Hashtags carried through into the niche analysis.
	assert.Contains(t, rep.NicheAnalysis.PopularHashtags, "#moda")
}

// abortingAPI flips the controller's abort flag from within the scraping
// phase, simulating a user hitting cancel while a job is in flight.
type abortingAPI struct {
	ctrl *Controller
}

func (a *abortingAPI) Submit(ctx context.Context, spec scrapejob.Spec) (*scrapejob.Job, error) {
	a.ctrl.Abort()
	return nil, errors.New("connection reset")
}

func (a *abortingAPI) Poll(ctx context.Context, jobID string) (*scrapejob.Job, error) {
	return nil, errors.New("unreachable")
}

func (a *abortingAPI) FetchResults(ctx context.Context, job *scrapejob.Job) ([]json.RawMessage, error) {
	return nil, errors.New("unreachable")
}

func TestAbortDuringScrapingBlocksImageAnalysis(t *testing.T) {
	api := &abortingAPI{}
	rec := &statusRecorder{}
	c := New(Config{
		Credentials: &credentials.Config{ApifyToken: "tok", GeminiKey: "g"},
		Resolver:    newFastResolver(api),
		Vision:      vision.NewAnalyzer(&nullLLM{}, nil),
		Observer:    rec.observe,
	})
	api.ctrl = c

	rep, err := c.Execute(context.Background(), "Loja", "moda", []string{"A", "B"})
	require.NoError(t, err, "cancellation is not an error")
	require.NotNil(t, rep, "the partial report is still returned")
	assert.Len(t, rep.Competitors, 2)

	final := rec.last()
	assert.Equal(t, PhaseIdle, final.Phase)
	assert.Equal(t, SubPending, final.Phases[PhaseImageAnalysis].State,
		"image analysis must never start after abort")
	assert.False(t, rec.sawPhaseRunning(PhaseImageAnalysis))
	require.NotNil(t, final.FinishedAt)

	cancelled := false
	for _, e := range final.Log {
		if strings.Contains(e.Message, "cancelada") {
			cancelled = true
		}
	}
	assert.True(t, cancelled, "the run log must explain the cancellation")
}

// nullLLM satisfies llm.Client for wiring tests that never reach the model.
type nullLLM struct{}

func (nullLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not configured")
}

func (nullLLM) AnalyzeImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return "", errors.New("not configured")
}

func (nullLLM) Close() error { return nil }

func TestExecuteHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Config{Credentials: &credentials.Config{}})
	rep, err := c.Execute(ctx, "Loja", "moda", []string{"A"})
	require.NoError(t, err)
	require.NotNil(t, rep)
	assert.Len(t, rep.Competitors, 1, "records exist even when no phase ran")
}
