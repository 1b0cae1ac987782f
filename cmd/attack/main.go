package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/TraFost/case-pilot/internal/attack"
	"github.com/TraFost/case-pilot/internal/config"
	"github.com/TraFost/case-pilot/internal/graph"
	"github.com/TraFost/case-pilot/internal/logging"
	"github.com/TraFost/case-pilot/internal/repository"
	"github.com/TraFost/case-pilot/internal/scheduler"
)

func main() {
	waves := flag.Int("waves", 1, "number of coordinated attack waves to inject")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Graph.URI == "" {
		fmt.Fprintln(os.Stderr, "GRAPH_URI must be set to inject against a graph backend")
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	})
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	sched := scheduler.NewTimer()
	injector := attack.NewInjector(repository.New(client), sched, logger)

	total := 0
	for i := 0; i < *waves; i++ {
		count, err := injector.Inject(ctx)
		if err != nil {
			logger.Error("attack injection failed", "error", err, "wave", i+1)
			sched.Wait()
			os.Exit(1)
		}
		total += count
	}

	// Scheduled units fire over the burst window; wait for all of them.
	sched.Wait()
	sched.Close()

	fmt.Fprintf(os.Stdout, "Injected %d attack units across %d wave(s)\n", total, *waves)
}
