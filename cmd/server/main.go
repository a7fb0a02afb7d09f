package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/example/carpool/internal/config"
	"github.com/example/carpool/internal/geocode"
	"github.com/example/carpool/internal/geoindex"
	httpapi "github.com/example/carpool/internal/http"
	"github.com/example/carpool/internal/ingest"
	"github.com/example/carpool/internal/logging"
	"github.com/example/carpool/internal/matcher"
	"github.com/example/carpool/internal/notify"
	"github.com/example/carpool/internal/routing"
	"github.com/example/carpool/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.PGDSN != "" && cfg.RunMigrations {
		if err := runMigrations(cfg.PGDSN); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	var store storage.Store
	if cfg.PGDSN != "" {
		ps, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		store = ps
	} else {
		logger.Warn("no PG_DSN configured, using in-memory store")
		store = storage.NewMemoryStore()
	}

	var rc routing.Client
	if cfg.OSRMEndpoint != "" {
		rc = routing.NewOSRMClient(cfg.OSRMEndpoint)
	} else {
		logger.Warn("no OSRM_ENDPOINT configured, detours will be straight-line estimates")
		rc = routing.NewEstimator()
	}
	rc = &routing.CachedClient{Inner: rc, Cache: routing.NewCache(cfg.RoutingCacheTTL)}

	var geocoder geocode.Geocoder
	if cfg.ORSAPIKey != "" {
		c := geocode.NewORSClient(cfg.ORSAPIKey, cfg.ORSCountry)
		c.Cache = geocode.NewCache()
		geocoder = c
	}

	var index geoindex.Index
	if cfg.RedisAddr != "" {
		index = geoindex.NewRedisIndex(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
	} else {
		index = geoindex.NewMemoryIndex()
	}

	wsreg := notify.NewWSRegistry()
	notifier := notify.NewWebhookNotifier(cfg.WebhookEndpoint, wsreg)

	deps := httpapi.Deps{
		Store:    store,
		Matcher:  &matcher.Service{Routing: rc, Logger: logger},
		Geocoder: geocoder,
		Index:    index,
		Notifier: notifier,
		WSReg:    wsreg,
	}
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		deps.Kafka = kp
	}

	srv := httpapi.NewServer(cfg, logger, deps)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("carpool api listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("bye")
}

func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_carpool.sql"))
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}
