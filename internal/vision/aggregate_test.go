package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madeira-labs/concorrente/internal/intel"
)

func TestAggregateEmpty(t *testing.T) {
	assert.Nil(t, Aggregate(nil))
	assert.Nil(t, Aggregate([]intel.VisualAnalysisResult{}))
}

func TestAggregateRanksAndPercentages(t *testing.T) {
	results := []intel.VisualAnalysisResult{
		{DominantColors: []string{"azul", "branco"}, Style: "minimalista", Composition: "produto", HasProduct: true, QualityScore: 8},
		{DominantColors: []string{"azul"}, Style: "minimalista", Composition: "lifestyle", HasPerson: true, QualityScore: 7},
		{DominantColors: []string{"verde"}, Style: "vibrante", Composition: "produto", HasText: true, HasProduct: true, QualityScore: 9},
		{DominantColors: []string{"azul"}, Style: "minimalista", Composition: "produto", HasPerson: true, QualityScore: 8},
	}

	rep := Aggregate(results)
	require.NotNil(t, rep)

	assert.Equal(t, 4, rep.ItemsAnalyzed)

	require.NotEmpty(t, rep.TopColors)
	assert.Equal(t, "azul", rep.TopColors[0].Value)
	assert.Equal(t, 3, rep.TopColors[0].Count)
	assert.InDelta(t, 75.0, rep.TopColors[0].Percent, 0.01)

	require.Len(t, rep.TopStyles, 2)
	assert.Equal(t, "minimalista", rep.TopStyles[0].Value)

	assert.InDelta(t, 25.0, rep.TextPercent, 0.01)
	assert.InDelta(t, 50.0, rep.ProductPercent, 0.01)
	assert.InDelta(t, 50.0, rep.PersonPercent, 0.01)
	assert.InDelta(t, 8.0, rep.AverageQuality, 0.01)
}

func TestAggregateTiesBreakAlphabetically(t *testing.T) {
	results := []intel.VisualAnalysisResult{
		{DominantColors: []string{"vermelho"}},
		{DominantColors: []string{"amarelo"}},
	}
	rep := Aggregate(results)
	require.Len(t, rep.TopColors, 2)
	assert.Equal(t, "amarelo", rep.TopColors[0].Value)
}

func TestAggregateRecommendationTriggers(t *testing.T) {
	// Low quality, no people, heavy text, single style: every rule fires.
	results := []intel.VisualAnalysisResult{
		{Style: "escuro", HasText: true, QualityScore: 3},
		{Style: "escuro", HasText: true, QualityScore: 4},
		{Style: "escuro", HasText: true, QualityScore: 3},
	}
	rep := Aggregate(results)
	assert.Len(t, rep.Recommendations, 4)

	// Healthy feed: no rule fires.
	healthy := []intel.VisualAnalysisResult{
		{Style: "claro", HasPerson: true, QualityScore: 8},
		{Style: "vibrante", HasPerson: true, QualityScore: 9},
	}
	rep = Aggregate(healthy)
	assert.Empty(t, rep.Recommendations)
}
