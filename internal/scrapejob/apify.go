package scrapejob

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const apifyBaseURL = "https://api.apify.com"

// ApifyClient implements API against the Apify actor-run protocol.
type ApifyClient struct {
	token string
	http  *resty.Client
}

// NewApifyClient creates the client. The token authorizes every request.
func NewApifyClient(token string) *ApifyClient {
	return &ApifyClient{
		token: token,
		http: resty.New().
			SetBaseURL(apifyBaseURL).
			SetTimeout(60 * time.Second).
			SetQueryParam("token", token),
	}
}

// SetBaseURL points the client at a different host. Used in tests.
func (c *ApifyClient) SetBaseURL(u string) { c.http.SetBaseURL(u) }

var _ API = (*ApifyClient)(nil)

type apifyRun struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// mapStatus folds the provider's extended status vocabulary into the engine's.
func mapStatus(s string) Status {
	switch s {
	case "READY":
		return StatusPending
	case "RUNNING", "TIMING-OUT", "ABORTING":
		return StatusRunning
	case "SUCCEEDED":
		return StatusSucceeded
	case "FAILED":
		return StatusFailed
	case "ABORTED":
		return StatusAborted
	case "TIMED-OUT":
		return StatusTimedOut
	default:
		return StatusPending
	}
}

func runToJob(r *apifyRun) *Job {
	return &Job{
		ID:        r.Data.ID,
		Status:    mapStatus(r.Data.Status),
		DatasetID: r.Data.DefaultDatasetID,
	}
}

// Submit starts an actor run.
func (c *ApifyClient) Submit(ctx context.Context, spec Spec) (*Job, error) {
	var run apifyRun
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(spec.Input).
		SetResult(&run).
		Post(fmt.Sprintf("/v2/acts/%s/runs", spec.Actor))
	if err != nil {
		return nil, fmt.Errorf("submit actor run: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("submit actor run: status %d", resp.StatusCode())
	}
	return runToJob(&run), nil
}

// Poll fetches the current run state.
func (c *ApifyClient) Poll(ctx context.Context, jobID string) (*Job, error) {
	var run apifyRun
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&run).
		Get(fmt.Sprintf("/v2/actor-runs/%s", jobID))
	if err != nil {
		return nil, fmt.Errorf("poll run %s: %w", jobID, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("poll run %s: status %d", jobID, resp.StatusCode())
	}
	return runToJob(&run), nil
}

// FetchResults downloads the run's dataset items in one request.
func (c *ApifyClient) FetchResults(ctx context.Context, job *Job) ([]json.RawMessage, error) {
	if job.DatasetID == "" {
		return nil, fmt.Errorf("run %s has no dataset", job.ID)
	}

	var items []json.RawMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("format", "json").
		SetResult(&items).
		Get(fmt.Sprintf("/v2/datasets/%s/items", job.DatasetID))
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", job.DatasetID, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetch dataset %s: status %d", job.DatasetID, resp.StatusCode())
	}
	return items, nil
}
