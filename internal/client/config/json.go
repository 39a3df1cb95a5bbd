package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pagewatch/internal/flagx"
	"github.com/dmitrijs2005/pagewatch/internal/timex"
)

// jsonConfig is the on-disk shape. Durations accept "3s" or integer
// nanoseconds. Keys missing from the file keep the value already in Config.
type jsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	CacheDir            string         `json:"cache_dir"`
	TextProvider        string         `json:"text_provider"`
	TextModel           string         `json:"text_model"`
	TextAPIKey          string         `json:"text_api_key"`
	TextBaseURL         string         `json:"text_base_url"`
	TextTimeout         timex.Duration `json:"text_timeout"`
	CheckCandidates     []string       `json:"check_candidates"`
	MaxHTMLBytes        int            `json:"max_html_bytes"`
	Logger              string         `json:"logger"`
	LogLevel            string         `json:"log_level"`
}

func parseJSON(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	jc := jsonConfig{
		ServerEndpointAddr:  cfg.ServerEndpointAddr,
		OnlineCheckInterval: timex.Duration{Duration: cfg.OnlineCheckInterval},
		CacheDir:            cfg.CacheDir,
		TextProvider:        cfg.TextProvider,
		TextModel:           cfg.TextModel,
		TextAPIKey:          cfg.TextAPIKey,
		TextBaseURL:         cfg.TextBaseURL,
		TextTimeout:         timex.Duration{Duration: cfg.TextTimeout},
		CheckCandidates:     cfg.CheckCandidates,
		MaxHTMLBytes:        cfg.MaxHTMLBytes,
		Logger:              cfg.Logger,
		LogLevel:            cfg.LogLevel,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	cfg.CacheDir = jc.CacheDir
	cfg.TextProvider = jc.TextProvider
	cfg.TextModel = jc.TextModel
	cfg.TextAPIKey = jc.TextAPIKey
	cfg.TextBaseURL = jc.TextBaseURL
	cfg.TextTimeout = jc.TextTimeout.Duration
	cfg.CheckCandidates = jc.CheckCandidates
	cfg.MaxHTMLBytes = jc.MaxHTMLBytes
	cfg.Logger = jc.Logger
	cfg.LogLevel = jc.LogLevel
	return nil
}
