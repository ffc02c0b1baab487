package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvalandra/redraft/internal/api"
	"github.com/nvalandra/redraft/internal/config"
	"github.com/nvalandra/redraft/internal/engine"
	"github.com/nvalandra/redraft/internal/papers"
	"github.com/nvalandra/redraft/internal/pipeline"
	"github.com/nvalandra/redraft/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Paper registry is optional; citations degrade to stubs without it.
	var registry *papers.Client
	if cfg.RegistryURL != "" {
		registry = papers.NewClient(cfg.RegistryURL, cfg.RegistryAPIKey)
	}

	docs := store.NewStore(cfg.DocTTL)
	eng := engine.New(log, nil)

	orch := pipeline.NewOrchestrator(cfg, registry, docs, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, eng, docs, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if registry != nil {
			registry.Close()
		}
	}()

	log.Info("starting redraft", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
