// Package serp selects and queries web-search providers. Availability is
// driven purely by configured credentials: the chain walks a priority order
// and uses the first provider whose credentials are present. With no
// credentials at all the chain reports itself disabled rather than erroring,
// and callers are expected to skip the search phase.
package serp

import "context"

// Provider ids, also used in priority orders.
const (
	ProviderSerpAPI   = "serpapi"
	ProviderGoogleCSE = "googlecse"
	ProviderBing      = "bing"
)

// DefaultPriority is the provider order used when the caller supplies none.
var DefaultPriority = []string{ProviderSerpAPI, ProviderGoogleCSE, ProviderBing}

// Result is one ranked search hit, normalized across providers.
type Result struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
	Source   string `json:"source"` // provider id that produced the hit
	Position int    `json:"position"`
}

// Response is the normalized shape every provider adapter maps into.
type Response struct {
	Query          string   `json:"query"`
	Provider       string   `json:"provider"`
	Results        []Result `json:"results"`
	TotalResults   int64    `json:"total_results,omitempty"`
	RelatedQueries []string `json:"related_queries,omitempty"`
	KnowledgePanel string   `json:"knowledge_panel,omitempty"`
	Cached         bool     `json:"cached,omitempty"`
}

// Options tunes a single search request.
type Options struct {
	Limit    int    // max results; 0 means provider default
	Language string // e.g. "pt-br"
	Country  string // e.g. "br"
}

// Provider is one search backend. Adapters normalize their wire formats into
// Response; field mapping details never leak past this interface.
type Provider interface {
	ID() string
	Search(ctx context.Context, query string, opts Options) (*Response, error)
}
