package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"marketquotes/internal/quote"
)

// Source kinds.
const (
	SourceYahooSpark = "yahoo_spark"
	SourceYahooChart = "yahoo_chart"
	SourceFinanceGo  = "finance_go"
)

type Server struct {
	Port              string `json:"port" yaml:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	// CacheMaxAgeSec is the s-maxage sent on successful responses.
	CacheMaxAgeSec int `json:"cache_max_age_sec" yaml:"cache_max_age_sec"`
}

type Source struct {
	Kind                  string `json:"kind" yaml:"kind"`
	BaseURL               string `json:"base_url" yaml:"base_url"`
	UserAgent             string `json:"user_agent" yaml:"user_agent"`
	MaxConcurrency        int    `json:"max_concurrency" yaml:"max_concurrency"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
	Burst                 int    `json:"burst" yaml:"burst"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" yaml:"min_request_interval_sec"`
	CacheTTLSeconds       int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type Config struct {
	Server      Server             `json:"server" yaml:"server"`
	Source      Source             `json:"source" yaml:"source"`
	Log         Log                `json:"log" yaml:"log"`
	Instruments []quote.Instrument `json:"instruments" yaml:"instruments"`
}

func Default() Config {
	instruments := make([]quote.Instrument, len(quote.DefaultInstruments))
	copy(instruments, quote.DefaultInstruments)
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, CacheMaxAgeSec: 300},
		Source: Source{
			Kind:           SourceYahooSpark,
			BaseURL:        "https://query1.finance.yahoo.com",
			MaxConcurrency: 4,
			Burst:          1,
		},
		Log:         Log{Level: "info", Format: "text"},
		Instruments: instruments,
	}
}

// Load reads config from path. JSON and YAML are chosen by extension. If path
// is empty, config.json then config.yaml are tried in the working directory,
// falling back to defaults. Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		for _, candidate := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid server.port: %q", c.Server.Port)
	}
	switch c.Source.Kind {
	case SourceYahooSpark, SourceYahooChart, SourceFinanceGo:
	default:
		return fmt.Errorf("unknown source.kind: %q", c.Source.Kind)
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instruments is empty")
	}
	seen := make(map[string]struct{}, len(c.Instruments))
	for i, in := range c.Instruments {
		if strings.TrimSpace(in.Symbol) == "" {
			return fmt.Errorf("instruments[%d]: empty symbol", i)
		}
		if _, dup := seen[in.Symbol]; dup {
			return fmt.Errorf("instruments[%d]: duplicate symbol %q", i, in.Symbol)
		}
		seen[in.Symbol] = struct{}{}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if err := envInt("REQUEST_TIMEOUT_SEC", 1, &cfg.Server.RequestTimeoutSec); err != nil {
		return err
	}
	if err := envInt("CACHE_MAX_AGE_SEC", 0, &cfg.Server.CacheMaxAgeSec); err != nil {
		return err
	}
	if v := os.Getenv("SOURCE_KIND"); v != "" {
		cfg.Source.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("YAHOO_USER_AGENT"); v != "" {
		cfg.Source.UserAgent = v
	}
	if err := envInt("YAHOO_MAX_CONCURRENCY", 1, &cfg.Source.MaxConcurrency); err != nil {
		return err
	}
	if err := envInt("SOURCE_MAX_RPM", 0, &cfg.Source.MaxRequestsPerMinute); err != nil {
		return err
	}
	if err := envInt("SOURCE_BURST", 1, &cfg.Source.Burst); err != nil {
		return err
	}
	if err := envInt("SOURCE_MIN_INTERVAL_SEC", 0, &cfg.Source.MinRequestIntervalSec); err != nil {
		return err
	}
	if err := envInt("SOURCE_CACHE_TTL_SEC", 0, &cfg.Source.CacheTTLSeconds); err != nil {
		return err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// envInt overwrites *dst with the integer in key when set; values below min
// are rejected.
func envInt(key string, min int, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	x, err := strconv.Atoi(v)
	if err != nil || x < min {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = x
	return nil
}
