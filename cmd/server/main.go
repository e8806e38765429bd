package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "reliefcheck/internal/adapters/http"
	"reliefcheck/internal/app"
	"reliefcheck/internal/config"
	"reliefcheck/internal/logging"
	"reliefcheck/internal/workers/investigationrunner"
)

func main() {
	cfg, cfgErr := config.Load()
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	log := logging.New("server")
	if cfgErr != nil {
		log.Warn("config", "error", cfgErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.DB != nil {
		if err := a.Migrate(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	processor := investigationrunner.Investigations{Investigator: a.Investigator}
	srv := httpadapter.New(httpadapter.Deps{
		Investigator: a.Investigator,
		Cases:        a.Cases,
		Intake:       a.Intake,
		Jobs:         a.Jobs,
		Processor:    processor,
		Metrics:      a.Metrics.Handler(),
		Logger:       logging.New("http"),
	})
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	// Optional background job workers
	var workers sync.WaitGroup
	if cfg.Workers > 0 {
		workers.Add(1)
		go func() {
			defer workers.Done()
			investigationrunner.Run(ctx, a.Jobs, processor, cfg.Workers, 500*time.Millisecond, logging.New("worker"))
		}()
		log.Info("investigation workers started", "workers", cfg.Workers)
	}

	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env, "case_store", cfg.CaseStore)

	// graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.MaxProcessing()+5*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	cancel()
	workers.Wait()
}
