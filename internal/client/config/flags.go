package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/flagx"
)

var ownedFlags = []string{"-a", "-i", "-cache", "-provider", "-model", "-key", "-base-url", "-values", "-log", "-level"}

// parseFlags overlays the flags this package owns:
//
//	-a         address and port of the server
//	-i         online check interval in seconds
//	-cache     directory for the offline snapshot cache
//	-provider  text generation provider: gemini or openai
//	-model     text generation model
//	-key       text generation API key
//	-base-url  OpenAI-compatible endpoint
//	-values    comma-separated check candidates
//	-log       logger backend: json, text or zap
//	-level     log level
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], ownedFlags)

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.CacheDir, "cache", cfg.CacheDir, "offline cache directory")
	fs.StringVar(&cfg.TextProvider, "provider", cfg.TextProvider, "text generation provider")
	fs.StringVar(&cfg.TextModel, "model", cfg.TextModel, "text generation model")
	fs.StringVar(&cfg.TextAPIKey, "key", cfg.TextAPIKey, "text generation API key")
	fs.StringVar(&cfg.TextBaseURL, "base-url", cfg.TextBaseURL, "OpenAI-compatible base URL")
	values := fs.String("values", strings.Join(cfg.CheckCandidates, ","), "check candidates")
	fs.StringVar(&cfg.Logger, "log", cfg.Logger, "logger backend (json, text, zap)")
	fs.StringVar(&cfg.LogLevel, "level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *interval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %d", *interval)
	}
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second

	var candidates []string
	for _, v := range strings.Split(*values, ",") {
		if v = strings.TrimSpace(v); v != "" {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf("at least one check candidate is required")
	}
	cfg.CheckCandidates = candidates

	switch cfg.TextProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown text provider %q", cfg.TextProvider)
	}
	return nil
}
