package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"cmd"}, args...)
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "addr and interval",
			args: []string{"-a", "127.0.0.1:9090", "-i", "10"},
			mutate: func(c *Config) {
				c.ServerEndpointAddr = "127.0.0.1:9090"
				c.OnlineCheckInterval = 10 * time.Second
			},
		},
		{
			name: "candidates and provider",
			args: []string{"-values", " A , B,,", "-provider", "openai", "-base-url", "http://llm:8080/v1"},
			mutate: func(c *Config) {
				c.CheckCandidates = []string{"A", "B"}
				c.TextProvider = ProviderOpenAI
				c.TextBaseURL = "http://llm:8080/v1"
			},
		},
		{name: "bad interval", args: []string{"-i", "abc"}, wantErr: true},
		{name: "zero interval", args: []string{"-i", "0"}, wantErr: true},
		{name: "empty candidates", args: []string{"-values", " , "}, wantErr: true},
		{name: "unknown provider", args: []string{"-provider", "bard"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setArgs(t, tt.args...)

			cfg := defaults()
			err := parseFlags(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.mutate(want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestParseJSON(t *testing.T) {
	t.Run("overlays present keys only", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"server_endpoint_addr":  "www.example:9000",
			"online_check_interval": "7s",
			"text_timeout":          int64(5 * time.Second),
			"check_candidates":      []string{"X"},
		})
		setArgs(t, "-c", path)

		cfg := defaults()
		require.NoError(t, parseJSON(cfg))

		assert.Equal(t, "www.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, 7*time.Second, cfg.OnlineCheckInterval)
		assert.Equal(t, 5*time.Second, cfg.TextTimeout)
		assert.Equal(t, []string{"X"}, cfg.CheckCandidates)
		assert.Equal(t, 16*1024, cfg.MaxHTMLBytes)
		assert.Equal(t, ProviderGemini, cfg.TextProvider)
	})

	t.Run("no file is a no-op", func(t *testing.T) {
		setArgs(t)
		cfg := defaults()
		require.NoError(t, parseJSON(cfg))
		assert.Empty(t, cmp.Diff(defaults(), cfg))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		setArgs(t, "-config", bad)
		require.Error(t, parseJSON(defaults()))
	})

	t.Run("missing file", func(t *testing.T) {
		setArgs(t, "-c", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, parseJSON(defaults()))
	})
}

func TestLoadConfig_EnvFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENAI_API_KEY", "oai-key")

	setArgs(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.TextAPIKey)
	assert.True(t, cfg.AssistsEnabled())
	assert.True(t, cfg.StoreConfigured())

	setArgs(t, "-provider", "openai")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "oai-key", cfg.TextAPIKey)

	setArgs(t, "-key", "explicit")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.TextAPIKey)
}
