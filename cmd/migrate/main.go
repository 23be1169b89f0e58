// Command migrate ensures the database schema exists. It is idempotent and
// safe to run on every deploy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alex1431999/keyword-monitor/internal/schema"
	"github.com/alex1431999/keyword-monitor/pkg/config"
	"github.com/alex1431999/keyword-monitor/pkg/logger"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
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
	log := logger.WithComponent("migrate")

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		log.Error("connecting to postgres failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := schema.Ensure(ctx, db); err != nil {
		log.Error("ensuring schema failed", "error", err)
		os.Exit(1)
	}
	log.Info("schema up to date", "database", cfg.Postgres.Database)
}
