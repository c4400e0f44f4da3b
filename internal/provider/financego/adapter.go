// Package financego adapts github.com/piquette/finance-go to provider.Source.
package financego

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"

	"marketquotes/internal/provider"
)

// Lister returns quotes for symbols in one call.
type Lister func(symbols []string) ([]*finance.Quote, error)

// ListQuotes drains the finance-go quote iterator.
func ListQuotes(symbols []string) ([]*finance.Quote, error) {
	iter := quote.List(symbols)
	var out []*finance.Quote
	for iter.Next() {
		out = append(out, iter.Quote())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type Adapter struct {
	name string
	list Lister
}

// New returns an adapter backed by list, or by ListQuotes when list is nil.
func New(name string, list Lister) *Adapter {
	if name == "" {
		name = "finance-go"
	}
	if list == nil {
		list = ListQuotes
	}
	return &Adapter{name: name, list: list}
}

func (a *Adapter) Name() string { return a.name }

// Fetch runs the listing off the caller goroutine since finance-go takes no
// context; a cancelled ctx returns immediately and the result is dropped.
func (a *Adapter) Fetch(ctx context.Context, symbols []string) (*provider.Batch, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols is empty")
	}

	type result struct {
		quotes []*finance.Quote
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		qs, err := a.list(symbols)
		ch <- result{qs, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-ch:
	}
	if r.err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, r.err)
	}

	b := provider.NewBatch(a.name)
	for _, q := range r.quotes {
		if q == nil || q.Symbol == "" {
			continue
		}
		b.Set(q.Symbol, FastInfo(q))
	}
	return b, nil
}

// FastInfo maps a finance-go quote onto a snapshot.
func FastInfo(q *finance.Quote) provider.FastInfo {
	return provider.FastInfo{
		LastPrice:     q.RegularMarketPrice,
		PreviousClose: q.RegularMarketPreviousClose,
		Currency:      q.CurrencyID,
	}
}
