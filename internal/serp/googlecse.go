package serp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const googleCSEBaseURL = "https://www.googleapis.com"

// GoogleCSE queries the Google Custom Search JSON API. It needs two
// credential fields: the API key and the search-engine context id (cx).
type GoogleCSE struct {
	apiKey   string
	engineID string
	http     *resty.Client
}

// NewGoogleCSE creates the adapter.
func NewGoogleCSE(apiKey, engineID string) *GoogleCSE {
	return &GoogleCSE{
		apiKey:   apiKey,
		engineID: engineID,
		http:     newSearchHTTPClient(googleCSEBaseURL),
	}
}

// SetBaseURL points the adapter at a different host. Used in tests.
func (g *GoogleCSE) SetBaseURL(u string) { g.http.SetBaseURL(u) }

func (g *GoogleCSE) ID() string { return ProviderGoogleCSE }

type googleCSEResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search runs the query and maps the wire format into Response.
func (g *GoogleCSE) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	var body googleCSEResponse

	req := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": g.apiKey,
			"cx":  g.engineID,
			"q":   query,
		}).
		SetResult(&body)
	if opts.Limit > 0 {
		// CSE caps num at 10 per request.
		n := opts.Limit
		if n > 10 {
			n = 10
		}
		req.SetQueryParam("num", strconv.Itoa(n))
	}
	if opts.Language != "" {
		req.SetQueryParam("hl", opts.Language)
	}
	if opts.Country != "" {
		req.SetQueryParam("gl", opts.Country)
	}

	resp, err := req.Get("/customsearch/v1")
	if err != nil {
		return nil, fmt.Errorf("googlecse request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("googlecse returned status %d", resp.StatusCode())
	}

	out := &Response{Query: query, Provider: ProviderGoogleCSE}
	if total, err := strconv.ParseInt(body.SearchInformation.TotalResults, 10, 64); err == nil {
		out.TotalResults = total
	}
	for i, item := range body.Items {
		out.Results = append(out.Results, Result{
			Title:    item.Title,
			Link:     item.Link,
			Snippet:  item.Snippet,
			Source:   ProviderGoogleCSE,
			Position: i + 1,
		})
	}
	return out, nil
}
