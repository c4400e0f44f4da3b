package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"marketquotes/internal/quote"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 300, cfg.Server.CacheMaxAgeSec)
	require.Equal(t, SourceYahooSpark, cfg.Source.Kind)
	require.Equal(t, quote.DefaultInstruments, cfg.Instruments)
	require.NoError(t, cfg.Validate())

	// the default table is copied, not aliased
	cfg.Instruments[0].Name = "changed"
	require.Equal(t, "Gold", quote.DefaultInstruments[0].Name)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_JSON(t *testing.T) {
	p := writeFile(t, "config.json", `{
		"server": {"port": "9090", "cache_max_age_sec": 60},
		"source": {"kind": "yahoo_chart", "max_concurrency": 2},
		"instruments": [{"symbol": "NVDA", "name": "NVIDIA"}]
	}`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, 60, cfg.Server.CacheMaxAgeSec)
	require.Equal(t, 10, cfg.Server.RequestTimeoutSec)
	require.Equal(t, SourceYahooChart, cfg.Source.Kind)
	require.Equal(t, 2, cfg.Source.MaxConcurrency)
	require.Equal(t, []quote.Instrument{{Symbol: "NVDA", Name: "NVIDIA"}}, cfg.Instruments)
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "config.yaml", `
server:
  port: "7070"
source:
  kind: finance_go
  cache_ttl_sec: 30
log:
  level: debug
  format: json
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Server.Port)
	require.Equal(t, SourceFinanceGo, cfg.Source.Kind)
	require.Equal(t, 30, cfg.Source.CacheTTLSeconds)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Len(t, cfg.Instruments, 10)
}

func TestLoad_ParseError(t *testing.T) {
	p := writeFile(t, "config.json", `{not json`)
	_, err := Load(p)
	require.ErrorContains(t, err, "parse config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	p := writeFile(t, "config.json", `{"server": {"port": "9090"}, "source": {"kind": "yahoo_chart"}}`)
	t.Setenv("PORT", "6060")
	t.Setenv("SOURCE_KIND", "YAHOO_SPARK")
	t.Setenv("SOURCE_MAX_RPM", "30")
	t.Setenv("SOURCE_CACHE_TTL_SEC", "15")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "6060", cfg.Server.Port)
	require.Equal(t, SourceYahooSpark, cfg.Source.Kind)
	require.Equal(t, 30, cfg.Source.MaxRequestsPerMinute)
	require.Equal(t, 15, cfg.Source.CacheTTLSeconds)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SEC", "zero")
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorContains(t, err, "REQUEST_TIMEOUT_SEC")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"bad port":         func(c *Config) { c.Server.Port = "http" },
		"port range":       func(c *Config) { c.Server.Port = "70000" },
		"unknown source":   func(c *Config) { c.Source.Kind = "bloomberg" },
		"no instruments":   func(c *Config) { c.Instruments = nil },
		"empty symbol":     func(c *Config) { c.Instruments = []quote.Instrument{{Symbol: " ", Name: "x"}} },
		"duplicate symbol": func(c *Config) { c.Instruments = append(c.Instruments, quote.Instrument{Symbol: "NVDA"}) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
