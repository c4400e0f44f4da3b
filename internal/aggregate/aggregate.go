package aggregate

import (
	"math"

	"github.com/sirupsen/logrus"

	"marketquotes/internal/metrics"
	"marketquotes/internal/provider"
	"marketquotes/internal/quote"
)

// Skip reasons reported to metrics.
const (
	SkipLookupError  = "lookup_error"
	SkipMissingPrice = "missing_price"
)

// Build maps a fetched batch onto the instrument table.
// Rules:
//   - output follows the order of instruments
//   - a symbol whose lookup fails is logged and left out
//   - a symbol with zero, missing or non-finite price or previous close is left out silently
//   - change = price - previousClose, changePercent = change / previousClose * 100
func Build(batch *provider.Batch, instruments []quote.Instrument, log logrus.FieldLogger) []quote.Quote {
	out := make([]quote.Quote, 0, len(instruments))
	if batch == nil {
		return out
	}
	for _, in := range instruments {
		q, ok := buildOne(batch, in, log)
		if ok {
			out = append(out, q)
		}
	}
	return out
}

// buildOne isolates a single symbol so that an error or panic while reading
// it never affects its neighbours.
func buildOne(batch *provider.Batch, in quote.Instrument, log logrus.FieldLogger) (q quote.Quote, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithFields(logrus.Fields{"symbol": in.Symbol, "source": batch.Source()}).
				Errorf("error fetching %s: %v", in.Symbol, rec)
			metrics.RecordSkipped(SkipLookupError)
			q, ok = quote.Quote{}, false
		}
	}()

	fi, err := batch.Lookup(in.Symbol)
	if err != nil {
		log.WithFields(logrus.Fields{"symbol": in.Symbol, "source": batch.Source()}).
			WithError(err).Warnf("error fetching %s", in.Symbol)
		metrics.RecordSkipped(SkipLookupError)
		return quote.Quote{}, false
	}
	if !usable(fi.LastPrice) || !usable(fi.PreviousClose) {
		metrics.RecordSkipped(SkipMissingPrice)
		return quote.Quote{}, false
	}

	change := fi.LastPrice - fi.PreviousClose
	return quote.Quote{
		Symbol:        in.Symbol,
		Name:          in.Name,
		Price:         fi.LastPrice,
		Change:        change,
		ChangePercent: change / fi.PreviousClose * 100,
		Currency:      fi.Currency,
	}, true
}

func usable(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
