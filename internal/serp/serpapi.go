package serp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const serpAPIBaseURL = "https://serpapi.com"

// SerpAPI queries serpapi.com's Google search endpoint.
type SerpAPI struct {
	apiKey string
	http   *resty.Client
}

// NewSerpAPI creates the adapter. The key is required; availability checks
// happen in the chain, not here.
func NewSerpAPI(apiKey string) *SerpAPI {
	return &SerpAPI{
		apiKey: apiKey,
		http:   newSearchHTTPClient(serpAPIBaseURL),
	}
}

// SetBaseURL points the adapter at a different host. Used in tests.
func (s *SerpAPI) SetBaseURL(u string) { s.http.SetBaseURL(u) }

func (s *SerpAPI) ID() string { return ProviderSerpAPI }

type serpAPIResponse struct {
	SearchInformation struct {
		TotalResults int64 `json:"total_results"`
	} `json:"search_information"`
	OrganicResults []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic_results"`
	RelatedSearches []struct {
		Query string `json:"query"`
	} `json:"related_searches"`
	KnowledgeGraph struct {
		Description string `json:"description"`
	} `json:"knowledge_graph"`
}

// Search runs the query and maps the wire format into Response.
func (s *SerpAPI) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	var body serpAPIResponse

	req := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  "google",
			"q":       query,
			"api_key": s.apiKey,
		}).
		SetResult(&body)
	if opts.Limit > 0 {
		req.SetQueryParam("num", strconv.Itoa(opts.Limit))
	}
	if opts.Language != "" {
		req.SetQueryParam("hl", opts.Language)
	}
	if opts.Country != "" {
		req.SetQueryParam("gl", opts.Country)
	}

	resp, err := req.Get("/search.json")
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("serpapi returned status %d", resp.StatusCode())
	}

	out := &Response{
		Query:          query,
		Provider:       ProviderSerpAPI,
		TotalResults:   body.SearchInformation.TotalResults,
		KnowledgePanel: body.KnowledgeGraph.Description,
	}
	for i, r := range body.OrganicResults {
		pos := r.Position
		if pos == 0 {
			pos = i + 1
		}
		out.Results = append(out.Results, Result{
			Title:    r.Title,
			Link:     r.Link,
			Snippet:  r.Snippet,
			Source:   ProviderSerpAPI,
			Position: pos,
		})
	}
	for _, rs := range body.RelatedSearches {
		out.RelatedQueries = append(out.RelatedQueries, rs.Query)
	}
	return out, nil
}

// newSearchHTTPClient builds the shared resty setup for search adapters:
// short timeout, bounded retries on throttling and server errors.
func newSearchHTTPClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(20 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
}
