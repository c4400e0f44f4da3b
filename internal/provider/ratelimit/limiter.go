package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"marketquotes/internal/provider"
)

// Limiter gates upstream calls with a token bucket.
type Limiter struct {
	P provider.Source
	L *rate.Limiter
}

// PerMinute builds a Limiter allowing rpm calls per minute with the given
// burst. The bucket starts full. rpm <= 0 disables limiting.
func PerMinute(p provider.Source, rpm, burst int) *Limiter {
	if rpm <= 0 {
		return &Limiter{P: p}
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{P: p, L: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)}
}

func (l *Limiter) Name() string { return l.P.Name() }

func (l *Limiter) Fetch(ctx context.Context, symbols []string) (*provider.Batch, error) {
	if l.L != nil {
		if err := l.L.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return l.P.Fetch(ctx, symbols)
}
