package yahoo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"marketquotes/internal/provider"
)

// SparkSource resolves every symbol with one spark request.
type SparkSource struct {
	client *Client
}

func NewSparkSource(c *Client) *SparkSource { return &SparkSource{client: c} }

func (s *SparkSource) Name() string { return "yahoo-spark" }

func (s *SparkSource) Fetch(ctx context.Context, symbols []string) (*provider.Batch, error) {
	results, err := s.client.GetSpark(ctx, symbols)
	if err != nil {
		return nil, err
	}
	b := provider.NewBatch(s.Name())
	for _, r := range results {
		if r.Err != nil {
			b.Fail(r.Symbol, r.Err)
			continue
		}
		b.Set(r.Symbol, r.Meta.FastInfo())
	}
	return b, nil
}

// ChartSource resolves symbols with one chart request each, at most
// MaxConcurrency in flight. Failures stay per symbol unless every symbol fails.
type ChartSource struct {
	client         *Client
	maxConcurrency int
}

func NewChartSource(c *Client, maxConcurrency int) *ChartSource {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &ChartSource{client: c, maxConcurrency: maxConcurrency}
}

func (s *ChartSource) Name() string { return "yahoo-chart" }

func (s *ChartSource) Fetch(ctx context.Context, symbols []string) (*provider.Batch, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols is empty")
	}

	metas := make([]*Meta, len(symbols))
	errs := make([]error, len(symbols))

	var g errgroup.Group
	g.SetLimit(s.maxConcurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			metas[i], errs[i] = s.client.GetChart(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	// Results that arrived before ctx ended are kept; a cancelled ctx only
	// fails the batch through the per-symbol errors it caused.
	b := provider.NewBatch(s.Name())
	var firstErr error
	for i, sym := range symbols {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			b.Fail(sym, errs[i])
			continue
		}
		b.Set(sym, metas[i].FastInfo())
	}
	if b.Resolved() == 0 && firstErr != nil {
		return nil, fmt.Errorf("all %d symbols failed: %w", len(symbols), firstErr)
	}
	return b, nil
}
