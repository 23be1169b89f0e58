// Command ingestd runs the monitoring core's write path: it consumes crawled
// mentions and processor annotations from Kafka, applies them to Postgres,
// and serves health and metrics endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alex1431999/keyword-monitor/internal/controller"
	"github.com/alex1431999/keyword-monitor/internal/ingest"
	"github.com/alex1431999/keyword-monitor/pkg/config"
	"github.com/alex1431999/keyword-monitor/pkg/health"
	"github.com/alex1431999/keyword-monitor/pkg/kafka"
	"github.com/alex1431999/keyword-monitor/pkg/logger"
	"github.com/alex1431999/keyword-monitor/pkg/metrics"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
	"github.com/alex1431999/keyword-monitor/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("ingestd")

	if err := run(cfg, log); err != nil {
		log.Error("ingestd exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	// A missing Redis only disables the analytics cache.
	rc, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, analytics cache disabled", "error", err)
		rc = nil
	} else {
		defer rc.Close()
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	ctrl := controller.New(db, rc, cfg, m)

	checker := health.NewChecker()
	checker.RegisterPinger("postgres", db, false)
	if rc != nil {
		// The cache is optional, so a dead Redis only degrades readiness.
		checker.RegisterPinger("redis", rc, true)
	}

	mentionHandler := ingest.NewMentionHandler(ctrl.Mentions, ctrl.Analytics, m)
	annotationHandler := ingest.NewAnnotationHandler(ctrl.Mentions, ctrl.Analytics, m)

	mentionConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.MentionIngest, mentionHandler.Handle)
	annotationConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.MentionAnnotations, annotationHandler.Handle)

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", checker.LiveHandler())
	mux.HandleFunc("/health/ready", checker.ReadyHandler())
	healthServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var shutdownMetrics func(context.Context) error
	if cfg.Metrics.Enabled {
		shutdownMetrics = metrics.StartServer(cfg.Metrics.Port)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mentionConsumer.Start(gctx)
	})
	g.Go(func() error {
		return annotationConsumer.Start(gctx)
	})
	g.Go(func() error {
		log.Info("health server listening", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	if m != nil {
		g.Go(func() error {
			gaugeUnprocessed(gctx, ctrl, m, log)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("health server shutdown failed", "error", err)
		}
		if shutdownMetrics != nil {
			if err := shutdownMetrics(shutdownCtx); err != nil {
				log.Warn("metrics server shutdown failed", "error", err)
			}
		}
		return nil
	})

	log.Info("ingestd started",
		"mention_topic", cfg.Kafka.Topics.MentionIngest,
		"annotation_topic", cfg.Kafka.Topics.MentionAnnotations,
	)
	return g.Wait()
}

// gaugeUnprocessed periodically refreshes the unprocessed-mentions gauge.
func gaugeUnprocessed(ctx context.Context, ctrl *controller.Controller, m *metrics.Metrics, log *slog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := ctrl.Mentions.CountUnprocessed(ctx)
			if err != nil {
				log.Warn("counting unprocessed mentions failed", "error", err)
				continue
			}
			m.UnprocessedMentions.Set(float64(count))
		}
	}
}
