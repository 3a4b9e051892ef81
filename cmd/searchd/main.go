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

	"github.com/coralcms/sitesearch/internal/analytics"
	"github.com/coralcms/sitesearch/internal/content"
	"github.com/coralcms/sitesearch/internal/indexer"
	"github.com/coralcms/sitesearch/internal/indexer/consumer"
	indexstore "github.com/coralcms/sitesearch/internal/indexer/store"
	"github.com/coralcms/sitesearch/internal/query"
	"github.com/coralcms/sitesearch/internal/search"
	"github.com/coralcms/sitesearch/internal/suggest"
	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/health"
	"github.com/coralcms/sitesearch/pkg/kafka"
	"github.com/coralcms/sitesearch/pkg/logger"
	"github.com/coralcms/sitesearch/pkg/metrics"
	"github.com/coralcms/sitesearch/pkg/middleware"
	"github.com/coralcms/sitesearch/pkg/postgres"
	pkgredis "github.com/coralcms/sitesearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting site search service", "port", cfg.Server.Port)

	m := metrics.New()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	var (
		redisClient *pkgredis.Client
		resultCache *search.ResultCache
		debouncer   suggest.Debouncer
	)
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching disabled", "error", err)
		debouncer = suggest.NewLocalDebouncer(cfg.Suggest.DebounceTTL)
	} else {
		defer redisClient.Close()
		resultCache = search.NewResultCache(redisClient, cfg.Redis, m)
		debouncer = suggest.NewRedisDebouncer(redisClient, cfg.Suggest)
		slog.Info("result cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := content.NewPostgresRepository(db)
	store := indexstore.NewPostgresStore(db)
	ix := indexer.New(repo, store, cfg.Indexer, m)

	processor := query.NewProcessor(cfg.Query)
	queries := query.NewEngine(store, processor)

	suggester := suggest.NewEngine(repo, suggest.NewPostgresSnapshotStore(db), debouncer, cfg.Suggest, m)
	if err := suggester.LoadSnapshot(ctx); err != nil {
		slog.Warn("could not restore suggestion snapshot", "error", err)
	}
	scheduler := suggest.NewScheduler(suggester)
	if err := scheduler.ScheduleRebuild(ctx, cfg.Suggest.RebuildFrequency); err != nil {
		slog.Error("failed to schedule suggestion rebuild", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer analyticsProducer.Close()
	recorder := analytics.NewRecorder(analytics.NewPostgresEventStore(db), analyticsProducer, cfg.Analytics, m)
	recorder.Start(ctx)
	defer recorder.Close()
	slog.Info("analytics recorder started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	contentConsumer := consumer.New(consumer.ConsumerConfig{
		Kafka:        cfg.Kafka,
		ChangedTopic: cfg.Kafka.Topics.ContentChanged,
		DeletedTopic: cfg.Kafka.Topics.ContentDeleted,
	}, ix, suggester)
	defer contentConsumer.Close()
	go func() {
		if err := contentConsumer.Start(ctx); err != nil {
			slog.Error("content consumer error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("suggestions", func(ctx context.Context) health.ComponentHealth {
		terms, _ := suggester.SnapshotInfo()
		if terms == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "snapshot empty"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d terms", terms)}
	})

	svc := search.NewService(ix, queries, suggester, recorder, resultCache, m)
	h := search.NewHandler(svc)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		metricsServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metrics.Handler(),
		}
		go func() {
			slog.Info("metrics server listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			metricsServer.Close()
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("site search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("site search service stopped")
}
