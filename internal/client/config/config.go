// Package config handles configuration of the PageWatch terminal client:
// defaults, then an optional JSON file, then command-line flags, then
// environment fallbacks for API keys.
package config

import (
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/flagx"
)

// DefaultCandidates are the values a simulated check picks from.
var DefaultCandidates = []string{"$49.99", "In Stock", "Out of Stock", "UNREGISTERED", "REGISTERED"}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds runtime settings for the client.
//
// TextAPIKey empty disables the assists; everything else keeps working.
// MaxHTMLBytes caps pasted HTML before it is sent to the model.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	CacheDir            string
	TextProvider        string
	TextModel           string
	TextAPIKey          string
	TextBaseURL         string
	TextTimeout         time.Duration
	CheckCandidates     []string
	MaxHTMLBytes        int
	Logger              string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.CacheDir = ".pagewatch"
	c.TextProvider = ProviderGemini
	c.TextModel = "gemini-2.5-flash"
	c.TextTimeout = 20 * time.Second
	c.CheckCandidates = append([]string(nil), DefaultCandidates...)
	c.MaxHTMLBytes = 16 * 1024
	c.Logger = "text"
	c.LogLevel = "warn"
}

// StoreConfigured reports whether the client knows where the store is.
func (c *Config) StoreConfigured() bool {
	return c.ServerEndpointAddr != ""
}

// AssistsEnabled reports whether a text-generation key is available.
func (c *Config) AssistsEnabled() bool {
	return c.TextAPIKey != ""
}

// LoadConfig applies defaults, the JSON file given with -c/-config, then
// command-line flags. Later sources win. An empty API key falls back to
// the provider's environment variable.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	switch cfg.TextProvider {
	case ProviderOpenAI:
		flagx.EnvFallback(&cfg.TextAPIKey, "OPENAI_API_KEY")
	default:
		flagx.EnvFallback(&cfg.TextAPIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
}
