package serp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerpAPISearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "google", r.URL.Query().Get("engine"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "marcenaria sp", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("num"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"search_information": {"total_results": 12300},
			"organic_results": [
				{"title": "Loja A", "link": "https://a.example", "snippet": "móveis", "position": 1},
				{"title": "Loja B", "link": "https://b.example", "snippet": "planejados"}
			],
			"related_searches": [{"query": "marcenaria moderna"}],
			"knowledge_graph": {"description": "Marcenaria é o ofício de trabalhar madeira."}
		}`)
	}))
	defer srv.Close()

	p := NewSerpAPI("secret")
	p.SetBaseURL(srv.URL)

	resp, err := p.Search(context.Background(), "marcenaria sp", Options{Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, ProviderSerpAPI, resp.Provider)
	assert.EqualValues(t, 12300, resp.TotalResults)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Loja A", resp.Results[0].Title)
	assert.Equal(t, 1, resp.Results[0].Position)
	assert.Equal(t, 2, resp.Results[1].Position, "missing position falls back to list order")
	assert.Equal(t, []string{"marcenaria moderna"}, resp.RelatedQueries)
	assert.NotEmpty(t, resp.KnowledgePanel)
}

func TestSerpAPISearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewSerpAPI("bad")
	p.SetBaseURL(srv.URL)

	_, err := p.Search(context.Background(), "q", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGoogleCSESearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customsearch/v1", r.URL.Path)
		assert.Equal(t, "key1", r.URL.Query().Get("key"))
		assert.Equal(t, "cx1", r.URL.Query().Get("cx"))
		assert.Equal(t, "10", r.URL.Query().Get("num"), "limit above 10 is capped")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"searchInformation": {"totalResults": "4200"},
			"items": [{"title": "Resultado", "link": "https://r.example", "snippet": "trecho"}]
		}`)
	}))
	defer srv.Close()

	p := NewGoogleCSE("key1", "cx1")
	p.SetBaseURL(srv.URL)

	resp, err := p.Search(context.Background(), "q", Options{Limit: 25})
	require.NoError(t, err)
	assert.EqualValues(t, 4200, resp.TotalResults)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, ProviderGoogleCSE, resp.Results[0].Source)
}

func TestBingSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v7.0/search", r.URL.Path)
		assert.Equal(t, "bkey", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "pt-BR", r.URL.Query().Get("mkt"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"webPages": {
				"totalEstimatedMatches": 900,
				"value": [
					{"name": "Primeiro", "url": "https://1.example", "snippet": "s1"},
					{"name": "Segundo", "url": "https://2.example", "snippet": "s2"}
				]
			},
			"relatedSearches": {"value": [{"text": "busca relacionada"}]},
			"entities": {"value": [{"description": "painel"}]}
		}`)
	}))
	defer srv.Close()

	p := NewBing("bkey")
	p.SetBaseURL(srv.URL)

	resp, err := p.Search(context.Background(), "q", Options{Language: "pt", Country: "BR"})
	require.NoError(t, err)
	assert.EqualValues(t, 900, resp.TotalResults)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 1, resp.Results[0].Position)
	assert.Equal(t, 2, resp.Results[1].Position)
	assert.Equal(t, []string{"busca relacionada"}, resp.RelatedQueries)
	assert.Equal(t, "painel", resp.KnowledgePanel)
}
