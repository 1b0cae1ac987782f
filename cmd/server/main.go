package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/TraFost/case-pilot/internal/attack"
	"github.com/TraFost/case-pilot/internal/config"
	"github.com/TraFost/case-pilot/internal/graph"
	"github.com/TraFost/case-pilot/internal/logging"
	"github.com/TraFost/case-pilot/internal/repository"
	"github.com/TraFost/case-pilot/internal/ring"
	"github.com/TraFost/case-pilot/internal/scheduler"
	"github.com/TraFost/case-pilot/internal/seed"
	"github.com/TraFost/case-pilot/internal/server"
	"github.com/TraFost/case-pilot/internal/store"
)

// dataStore is the union surface the API needs from a backend.
type dataStore interface {
	ring.Store
	attack.Store
	seed.Store
	server.AlertLister
	server.UserEnforcer
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	var (
		backend dataStore
		health  server.HealthService
	)

	graphClient, err := buildGraphClient(ctx, cfg)
	switch {
	case err == nil:
		defer func() {
			if closeErr := graphClient.Close(context.Background()); closeErr != nil {
				logger.Warn("closing graph client failed", "error", closeErr)
			}
		}()
		backend = repository.New(graphClient)
		health = server.GraphHealthService{Client: graphClient}
		logger.Info("using graph backend", "uri", cfg.Graph.URI)
	case errors.Is(err, graph.ErrMissingURI):
		mem := store.NewMemory()
		backend = mem
		health = mem
		logger.Info("no graph backend configured, using in-memory store")
		if cfg.Demo.SeedOnStart {
			seedDemoData(ctx, logger, mem, cfg.Demo.Seed)
		}
	default:
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewTimer()
	defer sched.Close()

	ringBuilder := ring.NewBuilder(backend)
	injector := attack.NewInjector(backend, sched, logger)
	apiHandlers := server.NewAPIHandlers(logger, ringBuilder, injector, backend, backend)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           health,
		API:              apiHandlers,
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func seedDemoData(ctx context.Context, logger *slog.Logger, dst seed.Store, seedValue int64) {
	seeder := seed.New(seed.Config{Seed: seedValue})
	res, err := seeder.Run(ctx, dst)
	if err != nil {
		logger.Error("demo seed failed", "error", err)
		return
	}
	logger.Info("demo data seeded",
		"users", res.Users,
		"transactions", res.Transactions,
		"entities", res.Entities,
		"links", res.Links,
		"alerts", res.Alerts,
		"rings", len(res.RingUserIDs),
	)
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
