// Package credentials holds the flat provider-credential configuration the
// host supplies to the engine. The engine never persists or transmits these
// values; missing credentials degrade the affected phase instead of failing
// the run.
package credentials

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is the full set of provider credentials. Empty fields mean the
// corresponding provider is unavailable.
type Config struct {
	// Search providers.
	SerpAPIKey   string
	GoogleCSEKey string
	GoogleCSEID  string // custom search engine context id; required together with the key
	BingKey      string

	// Scraping provider (actor-run API token).
	ApifyToken string

	// Vision + generative provider.
	GeminiKey string
}

// FromEnv loads credentials from the process environment, reading an optional
// .env file first. A missing .env file is not an error.
func FromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		SerpAPIKey:   os.Getenv("SERPAPI_KEY"),
		GoogleCSEKey: os.Getenv("GOOGLE_CSE_KEY"),
		GoogleCSEID:  os.Getenv("GOOGLE_CSE_ID"),
		BingKey:      os.Getenv("BING_SEARCH_KEY"),
		ApifyToken:   os.Getenv("APIFY_TOKEN"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
	}
}

// HasScraping reports whether the scraping provider can be used.
func (c *Config) HasScraping() bool { return c != nil && c.ApifyToken != "" }

// HasVision reports whether the vision provider can be used.
func (c *Config) HasVision() bool { return c != nil && c.GeminiKey != "" }

// HasGenerative reports whether the generative recommendation provider can be
// used. It shares the Gemini key with the vision provider.
func (c *Config) HasGenerative() bool { return c.HasVision() }
