package serp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const bingBaseURL = "https://api.bing.microsoft.com"

// Bing queries the Bing Web Search API.
type Bing struct {
	apiKey string
	http   *resty.Client
}

// NewBing creates the adapter.
func NewBing(apiKey string) *Bing {
	return &Bing{
		apiKey: apiKey,
		http:   newSearchHTTPClient(bingBaseURL),
	}
}

// SetBaseURL points the adapter at a different host. Used in tests.
func (b *Bing) SetBaseURL(u string) { b.http.SetBaseURL(u) }

func (b *Bing) ID() string { return ProviderBing }

type bingResponse struct {
	WebPages struct {
		TotalEstimatedMatches int64 `json:"totalEstimatedMatches"`
		Value                 []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
	RelatedSearches struct {
		Value []struct {
			Text string `json:"text"`
		} `json:"value"`
	} `json:"relatedSearches"`
	Entities struct {
		Value []struct {
			Description string `json:"description"`
		} `json:"value"`
	} `json:"entities"`
}

// Search runs the query and maps the wire format into Response.
func (b *Bing) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	var body bingResponse

	req := b.http.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", b.apiKey).
		SetQueryParam("q", query).
		SetResult(&body)
	if opts.Limit > 0 {
		req.SetQueryParam("count", strconv.Itoa(opts.Limit))
	}
	if opts.Language != "" && opts.Country != "" {
		req.SetQueryParam("mkt", opts.Language+"-"+opts.Country)
	}

	resp, err := req.Get("/v7.0/search")
	if err != nil {
		return nil, fmt.Errorf("bing request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("bing returned status %d", resp.StatusCode())
	}

	out := &Response{
		Query:        query,
		Provider:     ProviderBing,
		TotalResults: body.WebPages.TotalEstimatedMatches,
	}
	for i, v := range body.WebPages.Value {
		out.Results = append(out.Results, Result{
			Title:    v.Name,
			Link:     v.URL,
			Snippet:  v.Snippet,
			Source:   ProviderBing,
			Position: i + 1,
		})
	}
	for _, rs := range body.RelatedSearches.Value {
		out.RelatedQueries = append(out.RelatedQueries, rs.Text)
	}
	if len(body.Entities.Value) > 0 {
		out.KnowledgePanel = body.Entities.Value[0].Description
	}
	return out, nil
}
