package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gemini-pool-go/internal/config"
	"gemini-pool-go/internal/constants"
	"gemini-pool-go/internal/credential"
	"gemini-pool-go/internal/logging"
	mw "gemini-pool-go/internal/middleware"
	tracing "gemini-pool-go/internal/monitoring/tracing"
	srv "gemini-pool-go/internal/server"
	"gemini-pool-go/internal/session"
	store "gemini-pool-go/internal/storage"
	upgem "gemini-pool-go/internal/upstream/gemini"
	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if *debug {
		cfg.Logging.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	traceShutdown, err := tracing.Init(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	defer func() {
		if err := traceShutdown(context.Background()); err != nil {
			log.WithError(err).Warn("failed to shutdown tracing")
		}
	}()

	log.WithFields(log.Fields{
		"version": constants.Version,
		"config":  *configPath,
		"driver":  cfg.Database.Driver,
	}).Info("Starting gemini-pool-go")

	ledger, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to open usage ledger")
	}
	defer func() { _ = ledger.Close() }()

	pool, err := credential.NewPool(cfg.Upstream.APIKeys)
	if err != nil {
		log.WithError(err).Fatal("invalid upstream key pool")
	}
	log.Infof("Loaded %d upstream API keys", pool.Size())

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize redis")
	}
	defer rt.close()

	engine := srv.BuildEngine(cfg, srv.Dependencies{
		Pool:     pool,
		Store:    store.WithInstrumentation(ledger, ledger.Dialect()),
		Upstream: upgem.New(cfg.Upstream.BaseURL, cfg.UpstreamTimeout()),
		Cache:    rt.cache,
		Sessions: session.NewManager(cfg.Admin.JWTSecret, cfg.SessionTTL()),
		Limiter:  rt.limiter,
	})

	if err := config.Watch(ctx, *configPath, onConfigChange(cfg)); err != nil {
		log.WithError(err).Warn("config watcher disabled")
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
	}
	mw.SafeGo("http-server", func() {
		log.Infof("Gateway listening on %s", cfg.Server.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown incomplete")
	}
	log.Info("Server stopped")
}
