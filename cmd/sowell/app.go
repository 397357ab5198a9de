package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"

	"sowell/internal/audit"
	batchhandler "sowell/internal/batches/handler"
	batchmetrics "sowell/internal/batches/metrics"
	batchservice "sowell/internal/batches/service"
	batchstore "sowell/internal/batches/store"
	electoratestore "sowell/internal/electorate/store"
	"sowell/internal/platform/config"
	"sowell/internal/platform/kafka"
	"sowell/internal/platform/postgres"
	"sowell/internal/platform/redis"
	ratelimitmetrics "sowell/internal/ratelimit/metrics"
	ratelimit "sowell/internal/ratelimit/middleware"
	ratelimitmodels "sowell/internal/ratelimit/models"
	ratelimitstore "sowell/internal/ratelimit/store"
	"sowell/internal/search/cache"
	searchhandler "sowell/internal/search/handler"
	searchmetrics "sowell/internal/search/metrics"
	searchmodels "sowell/internal/search/models"
	searchservice "sowell/internal/search/service"
	searchstore "sowell/internal/search/store"
	sheethandler "sowell/internal/sheets/handler"
	sheetmetrics "sowell/internal/sheets/metrics"
	sheetservice "sowell/internal/sheets/service"
	sheetstore "sowell/internal/sheets/store"
	sighandler "sowell/internal/signatures/handler"
	sigmetrics "sowell/internal/signatures/metrics"
	sigservice "sowell/internal/signatures/service"
	sigstore "sowell/internal/signatures/store"
	httptransport "sowell/internal/transport/http"
	"sowell/pkg/platform/circuit"
	"sowell/pkg/platform/middleware/admin"
	"sowell/pkg/platform/middleware/auth"
)

const jwksTTL = time.Hour

// app owns the process-wide resources and the services built on them.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	redis    *redis.Client
	kafka    *kgo.Client
	registry *prometheus.Registry

	search     *searchservice.Service
	signatures *sigservice.Service
	sheets     *sheetservice.Service
	batches    *batchservice.Service
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db

	if a.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		a.close()
		return nil, err
	}
	if a.redis != nil {
		if err := a.redis.RegisterMetrics(a.registry); err != nil {
			a.close()
			return nil, fmt.Errorf("redis metrics: %w", err)
		}
	}
	if a.kafka, err = kafka.New(cfg.Kafka); err != nil {
		a.close()
		return nil, err
	}

	a.wire()
	return a, nil
}

func (a *app) auditSink() audit.Sink {
	if a.kafka == nil {
		return audit.NewLogSink(a.logger)
	}
	return audit.NewBreakerSink(
		audit.NewKafkaSink(a.kafka, a.cfg.Kafka.Topic),
		audit.NewLogSink(a.logger),
		circuit.New("audit-kafka"),
		a.logger,
	)
}

func (a *app) wire() {
	tx := postgres.NewTx(a.db, a.cfg.Database.TxTimeout)
	publisher := audit.NewPublisher(a.auditSink(),
		audit.WithLogger(a.logger),
		audit.WithMetrics(audit.NewMetrics(a.registry)),
	)

	roll := electoratestore.NewPostgres(a.db)
	sheets := sheetstore.NewPostgres(a.db)
	signatures := sigstore.NewPostgres(a.db)
	batches := batchstore.NewPostgres(a.db)

	// A nil *redis.Client must not reach the cache as a non-nil Cmdable.
	var cacheClient goredis.Cmdable
	if a.redis != nil {
		cacheClient = a.redis.Client
	}
	classifications := cache.New(roll, cacheClient, a.cfg.Redis.CacheTTL, cache.WithLogger(a.logger))

	a.search = searchservice.New(searchstore.NewPostgres(a.db, searchmodels.DefaultWeights), classifications,
		searchservice.WithLogger(a.logger),
		searchservice.WithMetrics(searchmetrics.New(a.registry)),
		searchservice.WithLimits(searchservice.Limits{
			Ranked:   a.cfg.Search.RankedLimit,
			Wildcard: a.cfg.Search.WildcardLimit,
			Timeout:  a.cfg.Search.Timeout,
		}),
		searchservice.WithRefresher(roll),
		searchservice.WithAuditPublisher(publisher),
	)
	a.signatures = sigservice.New(signatures, roll, sheets, tx,
		sigservice.WithLogger(a.logger),
		sigservice.WithMetrics(sigmetrics.New(a.registry)),
		sigservice.WithAuditPublisher(publisher),
	)
	a.sheets = sheetservice.New(sheets, signatures, tx,
		sheetservice.WithLogger(a.logger),
		sheetservice.WithMetrics(sheetmetrics.New(a.registry)),
		sheetservice.WithAuditPublisher(publisher),
	)
	a.batches = batchservice.New(batches, sheets, signatures, tx,
		batchservice.WithLogger(a.logger),
		batchservice.WithMetrics(batchmetrics.New(a.registry)),
		batchservice.WithAuditPublisher(publisher),
	)
}

func (a *app) router() http.Handler {
	cfg := httptransport.RouterConfig{
		Logger:   a.logger,
		Gatherer: a.registry,
		Health: map[string]httptransport.HealthCheck{
			"postgres": a.db.PingContext,
		},
	}
	if a.redis != nil {
		cfg.Health["redis"] = a.redis.Health
	}
	if a.cfg.RateLimit.Enabled {
		cfg.RateLimit = a.rateLimiter().Handler
	}
	if a.cfg.Auth.Enabled {
		validator := auth.NewValidator(auth.NewRemoteKeys(a.cfg.Auth.CertsURL, jwksTTL), a.cfg.Auth.Audience)
		cfg.Identity = auth.RequireIdentity(validator, a.cfg.Auth.Header, a.logger)
	}
	return httptransport.NewRouter(cfg,
		a.searchHandler(),
		sighandler.New(a.signatures, a.logger),
		sheethandler.New(a.sheets, a.logger),
		batchhandler.New(a.batches, a.logger),
	)
}

func (a *app) rateLimiter() *ratelimit.Middleware {
	var store ratelimit.Store = ratelimitstore.NewInMemory()
	if a.redis != nil {
		store = ratelimitstore.NewRedis(a.redis.Client)
	}
	policy := ratelimitmodels.Policy{Limit: a.cfg.RateLimit.Requests, Window: a.cfg.RateLimit.Window}
	return ratelimit.New(store, policy, a.logger, ratelimit.WithMetrics(ratelimitmetrics.New(a.registry)))
}

func (a *app) searchHandler() *searchhandler.Handler {
	h := searchhandler.New(a.search, a.logger)
	if a.cfg.Server.AdminToken != "" {
		h.WithAdminGuard(admin.RequireAdminToken(a.cfg.Server.AdminToken, a.logger))
	}
	return h
}

func (a *app) close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close postgres", "error", err)
		}
	}
}

// ensureTopic creates the audit topic when publishing to Kafka.
func (a *app) ensureTopic(ctx context.Context) error {
	if a.kafka == nil {
		return nil
	}
	if err := kafka.EnsureTopic(ctx, a.kafka, a.cfg.Kafka.Topic, -1, -1); err != nil {
		return fmt.Errorf("audit topic: %w", err)
	}
	return nil
}
