// Package scrapejob drives long-running remote scraping jobs through a
// submit/poll/fetch protocol, and layers the two-tier entity resolver on top
// of it. The remote side is an actor-run style API: a job is submitted with an
// actor id and an input document, polled by run id until it reaches a terminal
// status, and its results are fetched from a dataset in one request.
package scrapejob

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a remote job.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusAborted   Status = "ABORTED"
	StatusTimedOut  Status = "TIMED-OUT"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut:
		return true
	}
	return false
}

// Spec describes one job to submit: which remote actor to run and its input.
type Spec struct {
	Actor string
	Input map[string]any
}

// Job is the tracked state of one submitted job. DatasetID points at the
// result collection once the remote side assigns one.
type Job struct {
	ID        string
	Status    Status
	DatasetID string
}

// API is the remote job protocol. Implementations adapt one concrete
// provider's wire format; the runner only sees this interface.
type API interface {
	Submit(ctx context.Context, spec Spec) (*Job, error)
	Poll(ctx context.Context, jobID string) (*Job, error)
	FetchResults(ctx context.Context, job *Job) ([]json.RawMessage, error)
}

// JobFailedError reports a job that reached a non-success terminal status.
type JobFailedError struct {
	JobID  string
	Status Status
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s ended with status %s", e.JobID, e.Status)
}

// JobTimeoutError reports a job that never reached a terminal status within
// the caller's wall-clock deadline.
type JobTimeoutError struct {
	JobID   string
	Timeout time.Duration
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s did not finish within %s", e.JobID, e.Timeout)
}

// ResolutionError reports that both resolver tiers failed for an entity.
// The message carries both failure contexts so operators can tell a renamed
// entity apart from a provider outage.
type ResolutionError struct {
	Key       string
	DirectErr error
	SearchErr error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %q: direct lookup failed (%v); search fallback failed (%v)",
		e.Key, e.DirectErr, e.SearchErr)
}

func (e *ResolutionError) Unwrap() error { return e.DirectErr }
