package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dhruva/internal/bootstrap"
	"dhruva/internal/platform/config"
	"dhruva/internal/platform/logger"
)

// main wires the service graph, serves HTTP and runs the background
// workers until SIGINT or SIGTERM.
func main() {
	log := logger.New(os.Getenv("LOG_LEVEL"))

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log = logger.New(cfg.LogLevel)
	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build service", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	log.Info("initializing dhruva",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"ledger_simulated", cfg.Ledger.Simulated(),
		"postgres", cfg.Database.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Brokers != "",
		"vetting_require_ledger_auth", cfg.Vetting.RequireLedgerAuth,
		"reconcile_interval", cfg.Reconcile.Interval.String(),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.RunWorkers(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
