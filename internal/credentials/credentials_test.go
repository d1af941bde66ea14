package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("SERPAPI_KEY", "s")
	t.Setenv("GOOGLE_CSE_KEY", "gk")
	t.Setenv("GOOGLE_CSE_ID", "cx")
	t.Setenv("BING_SEARCH_KEY", "b")
	t.Setenv("APIFY_TOKEN", "a")
	t.Setenv("GEMINI_API_KEY", "g")

	c := FromEnv()
	assert.Equal(t, "s", c.SerpAPIKey)
	assert.Equal(t, "gk", c.GoogleCSEKey)
	assert.Equal(t, "cx", c.GoogleCSEID)
	assert.Equal(t, "b", c.BingKey)
	assert.Equal(t, "a", c.ApifyToken)
	assert.Equal(t, "g", c.GeminiKey)
}

func TestAvailabilityHelpers(t *testing.T) {
	var nilConfig *Config
	assert.False(t, nilConfig.HasScraping())
	assert.False(t, nilConfig.HasVision())
	assert.False(t, nilConfig.HasGenerative())

	assert.False(t, (&Config{}).HasScraping())
	assert.True(t, (&Config{ApifyToken: "t"}).HasScraping())
	assert.True(t, (&Config{GeminiKey: "g"}).HasVision())
	assert.True(t, (&Config{GeminiKey: "g"}).HasGenerative())
}
