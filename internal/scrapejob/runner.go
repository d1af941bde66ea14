package scrapejob

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/madeira-labs/concorrente/internal/metrics"
)

// Runner orchestrates one job through submit, poll and fetch.
//
// Submission is the only step that retries: transient submit failures get a
// bounded number of attempts with linear backoff, after which the error is
// returned. Poll failures are logged and tolerated indefinitely; only the
// wall-clock deadline or a terminal status ends the loop.
type Runner struct {
	api    API
	logger *slog.Logger

	submitAttempts int
	submitBackoff  time.Duration
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	API    API
	Logger *slog.Logger
	// SubmitAttempts bounds submission retries. Zero means 3.
	SubmitAttempts int
	// SubmitBackoff is the base backoff between submission attempts.
	// Zero means 2s; attempt n waits n times this.
	SubmitBackoff time.Duration
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SubmitAttempts <= 0 {
		cfg.SubmitAttempts = 3
	}
	if cfg.SubmitBackoff <= 0 {
		cfg.SubmitBackoff = 2 * time.Second
	}
	return &Runner{
		api:            cfg.API,
		logger:         cfg.Logger,
		submitAttempts: cfg.SubmitAttempts,
		submitBackoff:  cfg.SubmitBackoff,
	}
}

// Run submits the job, polls it at pollInterval until it reaches a terminal
// status or timeout elapses, then fetches and returns the result items.
// An empty result set is a valid outcome. Failure and timeout are reported as
// *JobFailedError and *JobTimeoutError respectively.
func (r *Runner) Run(ctx context.Context, spec Spec, timeout, pollInterval time.Duration) ([]json.RawMessage, error) {
	job, err := r.submit(ctx, spec)
	if err != nil {
		metrics.JobSubmissionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.JobSubmissionsTotal.WithLabelValues("ok").Inc()

	submittedAt := time.Now()
	r.logger.Info("job submitted", "job", job.ID, "actor", spec.Actor, "status", job.Status)

	deadline := submittedAt.Add(timeout)
	lastStatus := job.Status

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			r.logger.Warn("job timed out locally",
				"job", job.ID, "last_status", lastStatus, "elapsed", time.Since(submittedAt))
			return nil, &JobTimeoutError{JobID: job.ID, Timeout: timeout}
		}

		polled, err := r.api.Poll(ctx, job.ID)
		if err != nil {
			// Transient poll failures never end the loop; the deadline does.
			metrics.JobPollsTotal.WithLabelValues("error").Inc()
			r.logger.Warn("job poll failed, will retry",
				"job", job.ID, "elapsed", time.Since(submittedAt), "err", err)
			continue
		}
		metrics.JobPollsTotal.WithLabelValues(string(polled.Status)).Inc()

		if polled.Status != lastStatus {
			r.logger.Info("job status changed",
				"job", job.ID, "from", lastStatus, "to", polled.Status, "elapsed", time.Since(submittedAt))
			lastStatus = polled.Status
		}
		job = polled

		if !job.Status.Terminal() {
			continue
		}

		metrics.JobDuration.Observe(time.Since(submittedAt).Seconds())

		if job.Status != StatusSucceeded {
			return nil, &JobFailedError{JobID: job.ID, Status: job.Status}
		}

		items, err := r.api.FetchResults(ctx, job)
		if err != nil {
			return nil, fmt.Errorf("fetch results for job %s: %w", job.ID, err)
		}
		r.logger.Info("job finished",
			"job", job.ID, "items", len(items), "elapsed", time.Since(submittedAt))
		return items, nil
	}
}

func (r *Runner) submit(ctx context.Context, spec Spec) (*Job, error) {
	var lastErr error
	for attempt := 1; attempt <= r.submitAttempts; attempt++ {
		job, err := r.api.Submit(ctx, spec)
		if err == nil {
			return job, nil
		}
		lastErr = err
		r.logger.Warn("job submission failed",
			"actor", spec.Actor, "attempt", attempt, "err", err)

		if attempt == r.submitAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * r.submitBackoff):
		}
	}
	return nil, fmt.Errorf("submit job after %d attempts: %w", r.submitAttempts, lastErr)
}
