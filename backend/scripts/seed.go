package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neo4j-connector/backend/internal/connector"
	"neo4j-connector/backend/internal/datasource"
	"neo4j-connector/backend/pkg/config"
	"neo4j-connector/backend/pkg/logger"
)

func main() {
	model := flag.String("model", "person", "Model to seed")
	count := flag.Int("count", 25, "Number of records to create")
	workers := flag.Int("workers", 8, "Concurrent writers")
	force := flag.Bool("force", false, "Seed even if records of the model already exist")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.Debug); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	ctx := context.Background()
	c, err := datasource.Initialize(ctx, datasource.SettingsFromConfig(cfg), nil)
	if err != nil {
		log.Fatal("Failed to connect", zap.Error(err))
	}
	defer c.Disconnect(context.Background())

	// Create constraints
	log.Info("Creating constraints...")
	if err := c.EnsureUnique(ctx, *model, "id"); err != nil {
		log.Warn("Failed to create constraint (may already exist)", zap.Error(err))
	}

	existing, err := c.Count(ctx, *model, nil)
	if err != nil {
		log.Fatal("Failed to count existing records", zap.Error(err))
	}
	if existing > 0 && !*force {
		log.Info("Records already exist, skipping (use -force to add more)",
			zap.String("model", *model),
			zap.Int64("existing", existing),
		)
		os.Exit(0)
	}

	ids, err := seed(ctx, c, *model, *count, *workers)
	if err != nil {
		log.Fatal("Failed to seed records", zap.Error(err))
	}

	total, err := c.Count(ctx, *model, nil)
	if err != nil {
		log.Fatal("Failed to verify seeding", zap.Error(err))
	}

	log.Info("Seed completed",
		zap.String("model", *model),
		zap.Int("created", len(ids)),
		zap.Int64("total", total),
	)
}

// seed creates n sample records with at most workers writes in flight.
func seed(ctx context.Context, c *connector.Connector, model string, n, workers int) ([]any, error) {
	ids := make([]any, n)
	now := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			id, err := c.Create(gctx, model, connector.Record{
				"name":    fmt.Sprintf("%s-%03d", model, i),
				"rank":    i,
				"active":  i%2 == 0,
				"created": now.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}
