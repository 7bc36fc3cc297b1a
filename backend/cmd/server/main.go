package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neo4j-connector/backend/internal/api"
	"neo4j-connector/backend/internal/connector"
	"neo4j-connector/backend/internal/datasource"
	"neo4j-connector/backend/pkg/config"
	"neo4j-connector/backend/pkg/logger"
)

func main() {
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
	log.Info("Starting HTTP API server...")

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize data source", zap.Error(err))
	}
	defer closeStore()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(store, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// openStore connects the data source the server exposes. A datasources file
// takes precedence over the NEO4J_* environment.
func openStore(ctx context.Context, cfg *config.Config) (*connector.Connector, func(), error) {
	if cfg.DataSourcesFile == "" {
		c, err := datasource.Initialize(ctx, datasource.SettingsFromConfig(cfg), nil)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Disconnect(context.Background()) }, nil
	}

	f, err := datasource.LoadFile(cfg.DataSourcesFile)
	if err != nil {
		return nil, nil, err
	}
	reg := datasource.NewRegistry(nil)
	closeAll := func() { _ = reg.Close(context.Background()) }
	if err := reg.Open(ctx, f); err != nil {
		closeAll()
		return nil, nil, err
	}

	name, err := selectDataSource(cfg.DataSource, reg.Names())
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	c, _ := reg.Get(name)
	logger.Get().Info("Serving data source", zap.String("name", name))
	return c, closeAll, nil
}

// selectDataSource picks the requested name, or the only one declared.
func selectDataSource(requested string, names []string) (string, error) {
	if requested != "" {
		for _, n := range names {
			if n == requested {
				return n, nil
			}
		}
		return "", fmt.Errorf("data source %q not declared", requested)
	}
	if len(names) != 1 {
		return "", fmt.Errorf("DATASOURCE must name one of %v", names)
	}
	return names[0], nil
}
