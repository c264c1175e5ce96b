package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductInventory/internal/config"
	"ProductInventory/internal/db"
	"ProductInventory/internal/product"
	"ProductInventory/pkg/kit"
)

const limiterCleanupInterval = time.Minute

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	log := kit.NewLogger(cfg.Service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("open store failed", zap.Error(err))
	}
	defer closeStore()

	s := &product.Server{Store: store, Log: log}

	if cfg.RateLimit.RPS > 0 {
		s.Limiter = kit.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		stop := make(chan struct{})
		defer close(stop)
		go s.Limiter.StartCleanup(limiterCleanupInterval, stop)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := product.NewHandler(s, product.HTTPDeps{
		Log:            log,
		Service:        cfg.Service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(cfg.HTTPAddr, h, log); err != nil {
		log.Error("http server stopped", zap.Error(err))
	}
}

func openStore(cfg config.Config, log *zap.Logger) (product.Store, func(), error) {
	if !cfg.UsesPostgres() {
		log.Info("using in-memory product store")
		return product.NewMemStore(), func() {}, nil
	}

	conn, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using postgres product store")
	return product.NewPostgresStore(conn), func() { closeDB(conn, log) }, nil
}

func closeDB(conn *sql.DB, log *zap.Logger) {
	if err := conn.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
