package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"marketquotes/internal/aggregate"
	"marketquotes/internal/config"
	"marketquotes/internal/logging"
	"marketquotes/internal/quote"
	"marketquotes/internal/sources"
)

func main() {
	var (
		configPath string
		sourceKind string
		pretty     bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	flag.StringVar(&sourceKind, "source", "", "override source kind: yahoo_spark, yahoo_chart or finance_go")
	flag.BoolVar(&pretty, "pretty", false, "indent the JSON output")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	if sourceKind != "" {
		cfg.Source.Kind = sourceKind
		if err := cfg.Validate(); err != nil {
			logrus.WithError(err).Fatal("config")
		}
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	src, err := sources.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("source")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.RequestTimeoutSec)*time.Second)
	defer cancel()

	batch, err := src.Fetch(ctx, quote.Symbols(cfg.Instruments))
	if err != nil {
		log.WithError(err).WithField("source", src.Name()).Fatal("fetch")
	}
	env := quote.NewEnvelope(time.Now(), aggregate.Build(batch, cfg.Instruments, log))
	log.WithFields(logrus.Fields{
		"source":   src.Name(),
		"resolved": batch.Resolved(),
		"quotes":   len(env.Data),
	}).Info("fetched")

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(env); err != nil {
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
}
