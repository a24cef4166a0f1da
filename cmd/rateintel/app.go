package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/rate-intel/internal/archive"
	"github.com/ignite/rate-intel/internal/collector"
	"github.com/ignite/rate-intel/internal/config"
	"github.com/ignite/rate-intel/internal/market"
	"github.com/ignite/rate-intel/internal/metrics"
	"github.com/ignite/rate-intel/internal/pkg/distlock"
	"github.com/ignite/rate-intel/internal/pkg/logger"
	"github.com/ignite/rate-intel/internal/provider"
	"github.com/ignite/rate-intel/internal/recommend"
	"github.com/ignite/rate-intel/internal/repository/sqldb"
	"github.com/ignite/rate-intel/internal/service/pricing"
)

// app holds the wired pipeline for one command invocation.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *sqldb.Store
	redis    *redis.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	svc      *pricing.Service
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.metrics = metrics.New(a.registry)

	store, err := sqldb.Open(ctx, sqldb.Dialect(cfg.Database.Driver), cfg.Database.URL, sqldb.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.store = store
	log.Debug("database ready", "driver", cfg.Database.Driver)

	if cfg.Redis.Addr != "" {
		a.redis = connectRedis(ctx, cfg.Redis, log)
	}

	analyzer := market.NewAnalyzer(cfg.Market)
	client := provider.NewClient(provider.Config{
		BaseURL:    cfg.Provider.BaseURL,
		APIToken:   cfg.Provider.APIToken,
		Timeout:    cfg.Provider.Timeout(),
		MaxResults: cfg.Provider.MaxResults,
		MaxRetries: cfg.Provider.MaxRetries,
		Breaker: provider.BreakerConfig{
			MinRequests:  cfg.Provider.Breaker.MinRequests,
			FailureRatio: cfg.Provider.Breaker.FailureRatio,
			Interval:     time.Duration(cfg.Provider.Breaker.IntervalSeconds) * time.Second,
			OpenTimeout:  time.Duration(cfg.Provider.Breaker.OpenTimeoutSeconds) * time.Second,
		},
	}, nil, log, a.metrics)
	if !client.Configured() {
		log.Info("rate provider not configured, using synthetic competitor data")
	}

	synthetic := collector.NewSyntheticGenerator(collector.SyntheticConfig{
		Seed:        cfg.Synthetic.Seed,
		Competitors: cfg.Synthetic.Competitors,
		BaseRates:   cfg.Synthetic.BaseRates,
		DefaultRate: cfg.Synthetic.DefaultRate,
	})
	col := collector.New(client, synthetic, collector.NewCache(a.redis, cfg.Redis.CacheTTL()), log, a.metrics)

	deps := pricing.Deps{
		Rates:        store,
		Suggestions:  store,
		Observations: store,
		Collector:    col,
		Analyzer:     analyzer,
		Synthesizer:  recommend.NewSynthesizer(analyzer, cfg.Recommend),
		Locks:        distlock.NewProvider(a.redis, a.advisoryDB(), cfg.Redis.LockTTL()),
		Logger:       log,
		Metrics:      a.metrics,
	}
	if cfg.Archive.Enabled {
		arch, err := archive.NewS3Archive(ctx, archive.Config{
			Bucket:     cfg.Archive.S3Bucket,
			Prefix:     cfg.Archive.S3Prefix,
			Region:     cfg.Archive.Region,
			AWSProfile: cfg.Archive.GetAWSProfile(),
			Compress:   true,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Archiver = arch
	}

	a.svc = pricing.NewService(deps, pricing.Config{
		Workers:           cfg.Pipeline.Workers,
		RefreshWindowDays: cfg.Pipeline.RefreshWindowDays,
		HistoryDays:       cfg.Pipeline.HistoryDays,
	})
	return a, nil
}

// advisoryDB returns the handle for PostgreSQL advisory locks, or nil on
// SQLite.
func (a *app) advisoryDB() *sql.DB {
	if a.store.Dialect() != sqldb.Postgres {
		return nil
	}
	return a.store.DB()
}

// connectRedis returns a client, or nil when the server does not answer.
// Redis only backs the cache and locks, so the pipeline runs without it.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, continuing without cache and distributed locks", "addr", cfg.Addr, "error", err)
		client.Close()
		return nil
	}
	log.Debug("redis connected", "addr", cfg.Addr)
	return client
}

// writeMetrics dumps the registry in the node exporter textfile format.
func (a *app) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, a.registry)
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close database", "error", err)
		}
	}
}
