package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/TraFost/case-pilot/internal/config"
	"github.com/TraFost/case-pilot/internal/graph"
	"github.com/TraFost/case-pilot/internal/logging"
	"github.com/TraFost/case-pilot/internal/repository"
	"github.com/TraFost/case-pilot/internal/seed"
)

func main() {
	defaults := seed.DefaultConfig()
	var (
		users     = flag.Int("users", defaults.Users, "number of users to seed")
		txPerUser = flag.Int("tx-per-user", defaults.TxPerUser, "transactions per user")
		entities  = flag.Int("entities", defaults.Entities, "number of infrastructure entities")
		rings     = flag.Int("rings", defaults.Rings, "number of pre-built fraud rings")
		seedValue = flag.Int64("seed", defaults.Seed, "random seed for deterministic output")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Graph.URI == "" {
		fmt.Fprintln(os.Stderr, "GRAPH_URI must be set to seed a graph backend")
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
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

	seeder := seed.New(seed.Config{
		Users:     *users,
		TxPerUser: *txPerUser,
		Entities:  *entities,
		Rings:     *rings,
		Seed:      *seedValue,
	})

	res, err := seeder.Run(ctx, repository.New(client))
	if err != nil {
		logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Seeded %d users, %d transactions, %d entities, %d links, %d alerts (%d rings)\n",
		res.Users, res.Transactions, res.Entities, res.Links, res.Alerts, len(res.RingUserIDs))
}
