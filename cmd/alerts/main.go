package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
	"github.com/navid-fn/listing-radar/internal/directory"
	"github.com/navid-fn/listing-radar/internal/logger"
	"github.com/navid-fn/listing-radar/internal/pipeline"
	"github.com/navid-fn/listing-radar/internal/publisher"
	"github.com/navid-fn/listing-radar/internal/storage"
	"github.com/navid-fn/listing-radar/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		transport string
		interval  time.Duration
	)
	flag.StringVar(&transport, "transport", "", "Listing source: discord, slack, webhook, conditions (default TRANSPORT)")
	flag.DurationVar(&interval, "interval", 0, "Poll repeatedly at this interval, e.g. 5m (default POLL_INTERVAL, 0 = once)")
	flag.Parse()

	cfg := configs.AppLoad()
	if transport != "" {
		cfg.Transport = strings.ToLower(transport)
	}
	if interval > 0 {
		cfg.PollInterval = interval
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Infof("Starting listing radar with transport: %s", cfg.Transport)

	client := crawler.NewClient(crawler.DefaultHTTPConfig(cfg.HTTP.RequestsPerSecond, cfg.HTTP.RequestTimeout))

	source, err := pipeline.NewSource(cfg, client, log, time.Now)
	if err != nil {
		log.WithError(err).Error("Invalid listing source")
		return 2
	}

	var loader directory.Loader
	if cfg.DirectoryFile != "" {
		loader = directory.NewFile(cfg.DirectoryFile)
	} else {
		loader = directory.NewSheets(client, cfg.Sheets)
	}

	p := &pipeline.Pipeline{
		Directory: loader,
		Source:    source,
		Store:     store.New(cfg.Store.Path, cfg.Store.RetentionDays, log),
		Logger:    log,
		Clock:     time.Now,
	}

	if cfg.Kafka.Enabled() {
		pub, err := publisher.NewKafka(cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Warn("Alert publishing disabled")
		} else {
			defer pub.Close()
			p.Publisher = pub
		}
	}

	if cfg.ClickHouse.Enabled() {
		archive, err := storage.NewClickHouseStorage(cfg.ClickHouse.DSN())
		if err != nil {
			log.WithError(err).Warn("Alert archive disabled")
		} else {
			defer archive.Close()
			p.Archive = archive
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.PollInterval <= 0 {
		res, err := p.Run(ctx)
		if err != nil && !errors.Is(err, store.ErrLocked) {
			log.WithError(err).WithField("run_id", res.RunID).Error("Run aborted")
			return 1
		}
		return 0
	}

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Infof("Polling every %s", cfg.PollInterval)
	p.RunEvery(ctx, cfg.PollInterval)
	log.Info("Received shutdown signal, gracefully shutting down...")
	return 0
}

func startMetricsServer(addr string, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("Starting metrics server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server failed")
		}
	}()
	return srv
}
