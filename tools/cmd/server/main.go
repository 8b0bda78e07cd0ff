package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/analytics"
	"github.com/patrickwarner/troyconsole/internal/api"
	"github.com/patrickwarner/troyconsole/internal/backend"
	"github.com/patrickwarner/troyconsole/internal/config"
	"github.com/patrickwarner/troyconsole/internal/db"
	"github.com/patrickwarner/troyconsole/internal/geoip"
	"github.com/patrickwarner/troyconsole/internal/observability"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	metricsRegistry := observability.NewPrometheusRegistry()

	// Redis holds the per-client session scope, offline snapshots and
	// progress overrides. Without it those live in process memory.
	var store *db.RedisStore
	if cfg.RedisAddr != "" {
		s, err := db.InitRedis(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer s.Close()
		store = s
	}

	var journal db.Journal
	if cfg.PostgresDSN != "" {
		pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			return fmt.Errorf("failed to connect postgres: %w", err)
		}
		defer pg.Close()
		journal = pg
	} else {
		logger.Warn("POSTGRES_DSN not set, console actions are journaled in memory")
	}

	var (
		an analytics.AnalyticsService
		ch *sql.DB
	)
	if cfg.ClickHouseDSN != "" {
		svc, err := analytics.InitClickHouse(cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect clickhouse: %w", err)
		}
		defer svc.Close()
		an, ch = svc, svc.DB
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger, metricsRegistry)
	defer client.Close()

	srvDeps := api.NewServer(logger, client, store, journal, ch, an, metricsRegistry, cfg)
	srvDeps.Location = cfg.Location()

	if cfg.GeoIPDB != "" {
		g, err := geoip.Open(cfg.GeoIPDB)
		if err != nil {
			logger.Warn("geoip disabled", zap.String("path", cfg.GeoIPDB), zap.Error(err))
		} else {
			defer g.Close()
			srvDeps.GeoIP = g
		}
	}

	// idle limiter buckets are full again after a few minutes; idle console
	// clients expire after CacheTTL
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := srvDeps.Limiter.Prune(10 * time.Minute); n > 0 {
					logger.Debug("pruned rate limit buckets", zap.Int("count", n))
				}
				if n := srvDeps.PruneLocal(); n > 0 {
					logger.Debug("pruned idle console clients", zap.Int("count", n))
				}
			}
		}
	}()

	r := mux.NewRouter()
	srvDeps.Routes(r)

	if store != nil {
		go func() {
			if err := store.SubscribeRefresh(ctx, srvDeps.HandleRefresh); err != nil && ctx.Err() == nil {
				logger.Error("refresh subscription ended", zap.Error(err))
			}
		}()
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, "console"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Admin console running",
		zap.String("addr", addr),
		zap.String("backend", cfg.BackendURL),
		zap.Bool("demo_mode", cfg.DemoMode))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
