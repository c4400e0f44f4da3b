package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"marketquotes/internal/config"
	"marketquotes/internal/logging"
	"marketquotes/internal/provider/yahoo"
	"marketquotes/internal/quote"
	"marketquotes/internal/sources"
)

// dumpEntry is one symbol's decoded metadata plus what the service would read
// from it.
type dumpEntry struct {
	Symbol   string      `json:"symbol"`
	Meta     *yahoo.Meta `json:"meta,omitempty"`
	Price    float64     `json:"price"`
	Previous float64     `json:"previousClose"`
	Error    string      `json:"error,omitempty"`
}

func main() {
	var (
		symbolsCSV  string
		endpoint    string
		outPath     string
		cfgPath     string
		concurrency int
	)
	flag.StringVar(&symbolsCSV, "symbols", "", "comma-separated symbols (default: configured instruments)")
	flag.StringVar(&endpoint, "endpoint", "spark", "spark or chart")
	flag.StringVar(&outPath, "out", "", "output JSON file path (default: stdout)")
	flag.StringVar(&cfgPath, "config", os.Getenv("CONFIG_FILE"), "path to config file (optional)")
	flag.IntVar(&concurrency, "concurrency", 4, "parallel chart requests")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		symbols = quote.Symbols(cfg.Instruments)
	}

	client, err := sources.YahooClient(cfg)
	if err != nil {
		log.WithError(err).Fatal("client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second*2)
	defer cancel()

	var entries []dumpEntry
	switch endpoint {
	case "spark":
		entries, err = dumpSpark(ctx, client, symbols)
	case "chart":
		entries = dumpChart(ctx, client, symbols, concurrency)
	default:
		log.WithField("endpoint", endpoint).Fatal("unknown endpoint")
	}
	if err != nil {
		log.WithError(err).Fatal("dump")
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.WithError(err).Fatal("create out")
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		log.WithError(err).Fatal("encode")
	}
	if err := bw.Flush(); err != nil {
		log.WithError(err).Fatal("flush")
	}
	log.WithFields(logrus.Fields{"endpoint": endpoint, "symbols": len(entries), "out": outPath}).Info("done")
}

func dumpSpark(ctx context.Context, c *yahoo.Client, symbols []string) ([]dumpEntry, error) {
	results, err := c.GetSpark(ctx, symbols)
	if err != nil {
		return nil, err
	}
	entries := make([]dumpEntry, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			entries = append(entries, dumpEntry{Symbol: r.Symbol, Error: r.Err.Error()})
			continue
		}
		meta := r.Meta
		entries = append(entries, newEntry(r.Symbol, &meta))
	}
	return entries, nil
}

func dumpChart(ctx context.Context, c *yahoo.Client, symbols []string, concurrency int) []dumpEntry {
	entries := make([]dumpEntry, len(symbols))
	var g errgroup.Group
	g.SetLimit(max(concurrency, 1))
	for i, sym := range symbols {
		g.Go(func() error {
			meta, err := c.GetChart(ctx, sym)
			if err != nil {
				entries[i] = dumpEntry{Symbol: sym, Error: err.Error()}
				return nil
			}
			entries[i] = newEntry(sym, meta)
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

func newEntry(symbol string, meta *yahoo.Meta) dumpEntry {
	fi := meta.FastInfo()
	return dumpEntry{Symbol: symbol, Meta: meta, Price: fi.LastPrice, Previous: fi.PreviousClose}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
