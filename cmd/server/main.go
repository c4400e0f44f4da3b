package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"marketquotes/internal/config"
	"marketquotes/internal/logging"
	"marketquotes/internal/metrics"
	"marketquotes/internal/sources"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	src, err := sources.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("source")
	}

	timeout := time.Duration(cfg.Server.RequestTimeoutSec) * time.Second
	h := newMarketDataHandler(src, cfg.Instruments, log, timeout, cfg.Server.CacheMaxAgeSec)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newServer(h, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"source":      src.Name(),
			"instruments": len(cfg.Instruments),
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server")
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
}

// newServer routes the public endpoints and wraps them in the middleware
// chain.
func newServer(data http.Handler, log logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	r.Handle("/api/market_data", data).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/market_data", methodNotAllowed)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	var h http.Handler = r
	h = withRequestLog(log)(h)
	h = recoverPanic(log)(h)
	h = withGzip(h)
	h = withJSONHeaders(h)
	return metrics.InstrumentHandler(h)
}
