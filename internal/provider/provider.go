package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Batch.Lookup for symbols the upstream did not return.
var ErrNotFound = errors.New("symbol not returned by source")

// FastInfo is a lightweight, possibly stale quote snapshot for one symbol.
// Zero values mean the upstream did not report the field.
type FastInfo struct {
	LastPrice     float64
	PreviousClose float64
	Currency      string
}

// Batch is the outcome of a single upstream call for a set of symbols.
// Sources fill it with Set/Fail while building it; after Fetch returns it is
// treated as read-only and may be shared between requests.
type Batch struct {
	source     string
	receivedAt time.Time
	infos      map[string]FastInfo
	errs       map[string]error
}

func NewBatch(source string) *Batch {
	return &Batch{
		source:     source,
		receivedAt: time.Now().UTC(),
		infos:      map[string]FastInfo{},
		errs:       map[string]error{},
	}
}

func (b *Batch) Source() string        { return b.source }
func (b *Batch) ReceivedAt() time.Time { return b.receivedAt }

// Set records a snapshot for symbol, clearing any earlier failure.
func (b *Batch) Set(symbol string, fi FastInfo) {
	delete(b.errs, symbol)
	b.infos[symbol] = fi
}

// Fail records a per-symbol failure.
func (b *Batch) Fail(symbol string, err error) {
	if err == nil {
		err = ErrNotFound
	}
	delete(b.infos, symbol)
	b.errs[symbol] = err
}

// Lookup returns the snapshot for symbol or the error recorded for it.
func (b *Batch) Lookup(symbol string) (FastInfo, error) {
	if err, ok := b.errs[symbol]; ok {
		return FastInfo{}, fmt.Errorf("%s: %w", symbol, err)
	}
	if fi, ok := b.infos[symbol]; ok {
		return fi, nil
	}
	return FastInfo{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
}

// Resolved reports how many symbols carry a snapshot.
func (b *Batch) Resolved() int { return len(b.infos) }

// Source fetches snapshots for many symbols in one logical upstream call.
// An error means the whole call failed; per-symbol problems live in the Batch.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbols []string) (*Batch, error)
}
