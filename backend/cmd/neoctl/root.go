package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"neo4j-connector/backend/internal/connector"
	"neo4j-connector/backend/internal/datasource"
	"neo4j-connector/backend/pkg/config"
	"neo4j-connector/backend/pkg/logger"
)

// commandStore is the subset of the connector neoctl drives.
type commandStore interface {
	Ping(ctx context.Context) (bool, error)
	Create(ctx context.Context, model string, data connector.Record) (any, error)
	All(ctx context.Context, model string, filter connector.Filter) ([]connector.Record, error)
	Count(ctx context.Context, model string, where connector.Record) (int64, error)
	FindByID(ctx context.Context, model string, id any) (connector.Record, error)
	ReplaceByID(ctx context.Context, model string, id any, data connector.Record) (connector.Record, error)
	UpdateAttributes(ctx context.Context, model string, id any, data connector.Record) (connector.Record, error)
	UpdateOrCreate(ctx context.Context, model string, data connector.Record) (connector.Record, error)
	Destroy(ctx context.Context, model string, id any) (int64, error)
	DestroyAll(ctx context.Context, model string, where connector.Record) error
}

// opener connects the store a command runs against and returns its teardown.
type opener func(ctx context.Context) (commandStore, func(), error)

// Execute runs neoctl against the data source described by the environment.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root, closeStore := newRootCmd(openFromEnv)
	defer closeStore()
	return root.ExecuteContext(ctx)
}

func openFromEnv(ctx context.Context) (commandStore, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Env, cfg.Debug); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c, err := datasource.Initialize(ctx, datasource.SettingsFromConfig(cfg), nil)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	return c, func() {
		_ = c.Disconnect(context.Background())
		logger.Sync()
	}, nil
}

// newRootCmd builds the command tree. The returned func releases whatever the
// pre-run opened and is safe to call when nothing was.
func newRootCmd(open opener) (*cobra.Command, func()) {
	var (
		timeout time.Duration
		store   commandStore
		closeFn func()
		cancel  context.CancelFunc
	)

	root := &cobra.Command{
		Use:   "neoctl",
		Short: "Run connector operations against a Neo4j data source",
		Long: `neoctl issues one connector operation per invocation against the
Neo4j instance described by NEO4J_* environment variables (or .env).
Records and filters are passed as JSON and results are printed as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			ctx, c := context.WithTimeout(cmd.Context(), timeout)
			cancel = c
			cmd.SetContext(ctx)

			s, closer, err := open(ctx)
			if err != nil {
				return err
			}
			store, closeFn = s, closer
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall deadline for the command")

	get := func() commandStore { return store }
	root.AddCommand(
		pingCmd(get),
		createCmd(get),
		allCmd(get),
		countCmd(get),
		getCmd(get),
		replaceCmd(get),
		patchCmd(get),
		upsertCmd(get),
		destroyCmd(get),
		destroyAllCmd(get),
	)

	release := func() {
		if closeFn != nil {
			closeFn()
			closeFn = nil
		}
		if cancel != nil {
			cancel()
		}
	}
	return root, release
}
