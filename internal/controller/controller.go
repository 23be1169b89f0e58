// Package controller composes the monitoring core's registries, stores and
// analytics pipeline behind one entry point. Callers construct it once at
// startup and reach every persistence operation through its fields.
package controller

import (
	"github.com/alex1431999/keyword-monitor/internal/analytics"
	"github.com/alex1431999/keyword-monitor/internal/index"
	"github.com/alex1431999/keyword-monitor/internal/keyword"
	"github.com/alex1431999/keyword-monitor/internal/mention"
	"github.com/alex1431999/keyword-monitor/internal/meta"
	"github.com/alex1431999/keyword-monitor/internal/user"
	"github.com/alex1431999/keyword-monitor/pkg/config"
	"github.com/alex1431999/keyword-monitor/pkg/metrics"
	"github.com/alex1431999/keyword-monitor/pkg/postgres"
	"github.com/alex1431999/keyword-monitor/pkg/redis"
)

// Controller bundles every persistence and analytics component.
type Controller struct {
	Keywords  *keyword.Registry
	Indexes   *index.Registry
	Mentions  *mention.Store
	Analytics *analytics.Pipeline
	Meta      *meta.Registry
	Users     *user.Registry
}

// New wires the full controller. rc and m may be nil, which disables the
// analytics cache and metrics respectively.
func New(db *postgres.Client, rc *redis.Client, cfg *config.Config, m *metrics.Metrics) *Controller {
	metaRegistry := meta.NewRegistry(db)

	var cache *analytics.Cache
	if rc != nil {
		cache = analytics.NewCache(rc, cfg.Redis.CacheTTL, m)
	}

	return &Controller{
		Keywords:  keyword.NewRegistry(db, metaRegistry, m),
		Indexes:   index.NewRegistry(db, m),
		Mentions:  mention.NewStore(db),
		Analytics: analytics.NewPipeline(db, cache, cfg.Analytics, m),
		Meta:      metaRegistry,
		Users:     user.NewRegistry(db),
	}
}
