// Package sources assembles the configured upstream source and its
// decorators.
package sources

import (
	"fmt"
	"net/http"
	"time"

	"marketquotes/internal/config"
	"marketquotes/internal/httpx"
	"marketquotes/internal/provider"
	"marketquotes/internal/provider/cache"
	"marketquotes/internal/provider/financego"
	"marketquotes/internal/provider/ratelimit"
	"marketquotes/internal/provider/yahoo"
)

// New builds the source named by cfg.Source.Kind, wrapped with rate limiting
// and caching when configured. The rate limiter sits below the cache so hits
// never spend a token.
func New(cfg config.Config) (provider.Source, error) {
	var p provider.Source
	switch cfg.Source.Kind {
	case config.SourceYahooSpark, config.SourceYahooChart:
		client, err := YahooClient(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Source.Kind == config.SourceYahooSpark {
			p = yahoo.NewSparkSource(client)
		} else {
			p = yahoo.NewChartSource(client, cfg.Source.MaxConcurrency)
		}
	case config.SourceFinanceGo:
		p = financego.New("", nil)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	return Decorate(p, cfg.Source), nil
}

// Decorate applies the rate limit and cache settings of sc to p.
// Requests per minute win over a fixed minimum interval when both are set.
func Decorate(p provider.Source, sc config.Source) provider.Source {
	if sc.MaxRequestsPerMinute > 0 {
		p = ratelimit.PerMinute(p, sc.MaxRequestsPerMinute, sc.Burst)
	} else if sc.MinRequestIntervalSec > 0 {
		p = &ratelimit.MinInterval{P: p, Interval: time.Duration(sc.MinRequestIntervalSec) * time.Second}
	}
	if sc.CacheTTLSeconds > 0 {
		p = &cache.Source{P: p, TTL: time.Duration(sc.CacheTTLSeconds) * time.Second}
	}
	return p
}

// YahooClient returns a yahoo client using the tuned transport, the
// configured user agent and base URL.
func YahooClient(cfg config.Config) (*yahoo.Client, error) {
	hc := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	if cfg.Source.UserAgent != "" {
		hc.UserAgent = cfg.Source.UserAgent
	}
	opts := []yahoo.ClientOption{
		yahoo.WithHTTPClient(hc),
		yahoo.WithHeader(http.Header{"Accept-Language": []string{"en-US,en;q=0.9"}}),
	}
	if cfg.Source.BaseURL != "" {
		opts = append(opts, yahoo.WithBaseURL(cfg.Source.BaseURL))
	}
	client, err := yahoo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("yahoo client: %w", err)
	}
	return client, nil
}
