// Package main is the entry point for the CQC filtering API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"careindex/internal/config"
	"careindex/internal/core/tx"
	"careindex/internal/domain/filter"
	"careindex/internal/domain/search"
	v1 "careindex/internal/infrastructure/http/v1"
	"careindex/internal/infrastructure/metrics"
	"careindex/internal/infrastructure/storage/memory"
	"careindex/internal/infrastructure/storage/postgres"
	"careindex/internal/metadata"
	"careindex/pkg/logger"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development || cfg.IsDevelopment(),
		Service:     cfg.App.Name,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting server", "env", cfg.App.Env, "storage", cfg.Storage.Driver, "version", version)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cat := filter.DefaultCatalog()

	// --- Storage ---
	var (
		repo search.Repository
		txm  tx.ReadOnlyManager
		pool *postgres.Pool
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		records, err := memory.LoadFile(cfg.Storage.Fixture, cat)
		if err != nil {
			log.Fatalw("failed to load fixture", "path", cfg.Storage.Fixture, "error", err)
		}
		store, err := memory.NewStore(records)
		if err != nil {
			log.Fatalw("failed to build memory store", "error", err)
		}
		repo = store
		log.Infow("memory store loaded", "records", store.Len())
	default:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL())
		poolCfg.MaxConns = cfg.Postgres.MaxConns
		poolCfg.MinConns = cfg.Postgres.MinConns
		pool, err = postgres.NewPool(ctx, poolCfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		pool.LogStats(ctx)

		txOpts := postgres.DefaultTxOptions()
		txOpts.StatementTimeout = cfg.Postgres.StatementTimeout
		txManager := postgres.NewTxManager(pool, txOpts)
		repo = postgres.NewQueryRepo(txManager)
		txm = txManager
		log.Info("database connection established")
	}

	// --- Search service ---
	service, err := search.NewService(search.ServiceConfig{
		Catalog:   cat,
		Limits:    cfg.Limits(),
		Repo:      m.InstrumentRepository(repo),
		TxManager: txm,
	})
	if err != nil {
		log.Fatalw("failed to create search service", "error", err)
	}
	log.Infow("catalog loaded", "columns", cat.Len())

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Service:    service,
		Metadata:   metadata.NewRegistry(cat),
		Logger:     log,
		Metrics:    m,
		Gatherer:   reg,
		Pool:       pool,
		AppName:    cfg.App.Name,
		AppVersion: version,
	})

	// --- HTTP Server ---
	port := strconv.Itoa(cfg.App.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      v1.Handler(router),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  2 * cfg.App.WriteTimeout,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
