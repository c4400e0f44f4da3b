package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"marketquotes/internal/aggregate"
	"marketquotes/internal/metrics"
	"marketquotes/internal/provider"
	"marketquotes/internal/quote"
)

const contentTypeJSON = "application/json"

// marketDataHandler serves the quote snapshot for the configured instruments.
type marketDataHandler struct {
	source      provider.Source
	instruments []quote.Instrument
	symbols     []string
	log         logrus.FieldLogger
	timeout     time.Duration
	maxAge      int

	now    func() time.Time
	encode func(v any) ([]byte, error)
}

func newMarketDataHandler(src provider.Source, instruments []quote.Instrument, log logrus.FieldLogger, timeout time.Duration, maxAge int) *marketDataHandler {
	return &marketDataHandler{
		source:      src,
		instruments: instruments,
		symbols:     quote.Symbols(instruments),
		log:         log,
		timeout:     timeout,
		maxAge:      maxAge,
		now:         time.Now,
		encode:      encodeJSON,
	}
}

func (h *marketDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	batch, err := h.source.Fetch(ctx, h.symbols)
	metrics.RecordUpstreamFetch(h.source.Name(), time.Since(start), err)
	if err != nil {
		h.log.WithError(err).WithField("source", h.source.Name()).Error("fetch market data")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	env := quote.NewEnvelope(h.now(), aggregate.Build(batch, h.instruments, h.log))
	body, err := h.encode(env)
	if err != nil {
		h.log.WithError(err).Error("encode market data")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "public, s-maxage="+strconv.Itoa(h.maxAge))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// methodNotAllowed answers methods other than GET and HEAD on the data route.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD")
	writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method))
}

// writeError writes the error envelope. Cache-Control is never sent on errors.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Del("Cache-Control")
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	body, err := encodeJSON(quote.ErrorBody{Status: quote.StatusError, Message: msg})
	if err != nil {
		return
	}
	_, _ = w.Write(body)
}

// encodeJSON marshals v without HTML escaping so names like "S&P 500" stay
// readable.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
