// Command seed loads a development environment: it registers a demo user and
// keyword directly in Postgres, then publishes synthetic mention events to
// the ingest topic so the full pipeline can be exercised locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/alex1431999/keyword-monitor/internal/controller"
	"github.com/alex1431999/keyword-monitor/internal/ingest"
	"github.com/alex1431999/keyword-monitor/pkg/config"
	"github.com/alex1431999/keyword-monitor/pkg/kafka"
	"github.com/alex1431999/keyword-monitor/pkg/logger"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	keywordString := flag.String("keyword", "coffee", "keyword to seed")
	language := flag.String("language", "en", "keyword language")
	username := flag.String("user", "demo", "owning username")
	count := flag.Int("count", 50, "number of mention events to publish")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("seed")

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		log.Error("connecting to postgres failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ctrl := controller.New(db, nil, cfg, nil)

	if existing, err := ctrl.Users.Get(ctx, *username); err != nil {
		log.Error("reading user failed", "error", err)
		os.Exit(1)
	} else if existing == nil {
		if _, err := ctrl.Users.Add(ctx, *username, "not-a-real-hash"); err != nil {
			log.Error("creating user failed", "error", err)
			os.Exit(1)
		}
	}

	kw, err := ctrl.Keywords.Add(ctx, *keywordString, *language, *username)
	if err != nil {
		log.Error("creating keyword failed", "error", err)
		os.Exit(1)
	}
	log.Info("keyword ready", "keyword", kw.KeywordString, "id", kw.ID)

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.MentionIngest)
	defer producer.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	events := make([]kafka.Event, 0, *count)
	now := time.Now().UTC()
	for i := 0; i < *count; i++ {
		events = append(events, kafka.Event{
			Key: kw.ID.String(),
			Value: ingest.MentionEvent{
				KeywordID:  kw.ID.String(),
				SourceType: "TWITTER",
				Text:       fmt.Sprintf("synthetic mention %d of %s", i, kw.KeywordString),
				Timestamp:  now.Add(-time.Duration(i) * 10 * time.Minute),
				TweetID:    rng.Int63(),
				Likes:      rng.Intn(500),
				Retweets:   rng.Intn(100),
			},
		})
	}

	if err := producer.PublishBatch(ctx, events); err != nil {
		log.Error("publishing seed events failed", "error", err)
		os.Exit(1)
	}
	log.Info("seed events published", "count", len(events), "topic", cfg.Kafka.Topics.MentionIngest)
}
