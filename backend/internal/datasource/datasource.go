package datasource

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"neo4j-connector/backend/internal/connector"
	"neo4j-connector/backend/internal/graph"
	"neo4j-connector/backend/pkg/config"
	apperrors "neo4j-connector/backend/pkg/errors"
	"neo4j-connector/backend/pkg/logger"
)

// ConnectorNeo4j is the only connector name this registry knows how to build.
const ConnectorNeo4j = "neo4j"

// Definition declares one data source in a datasources file.
type Definition struct {
	Name               string `yaml:"name"`
	Connector          string `yaml:"connector"`
	connector.Settings `yaml:",inline"`
}

// File is the parsed form of a datasources file.
type File struct {
	DataSources []Definition `yaml:"datasources"`
}

// Initialize builds a connector from settings and establishes its session.
func Initialize(ctx context.Context, settings connector.Settings, dial graph.Dialer) (*connector.Connector, error) {
	c := connector.New(settings, dial)
	if _, err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// SettingsFromConfig maps environment configuration onto connector settings.
func SettingsFromConfig(cfg *config.Config) connector.Settings {
	return connector.Settings{
		Host:           cfg.Neo4jHost,
		Port:           cfg.Neo4jPort,
		User:           cfg.Neo4jUser,
		Password:       cfg.Neo4jPassword,
		Encrypted:      cfg.Neo4jEncrypted,
		Database:       cfg.Neo4jDatabase,
		Debug:          cfg.Debug,
		QueryTimeout:   cfg.QueryTimeout,
		PingTimeout:    cfg.PingTimeout,
		ConnectTimeout: cfg.ConnectTimeout,
	}
}

// LoadFile reads a datasources file, expanding ${VAR} references from the environment.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read datasources file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates datasources YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal datasources file: %w", err)
	}

	seen := make(map[string]bool, len(f.DataSources))
	for i, def := range f.DataSources {
		if def.Name == "" {
			return nil, apperrors.NewConfigMissingRequired(fmt.Sprintf("datasources[%d].name", i))
		}
		if seen[def.Name] {
			return nil, apperrors.NewConfigValidationFailed("datasources", fmt.Sprintf("duplicate name %q", def.Name))
		}
		seen[def.Name] = true
		if def.Connector != ConnectorNeo4j {
			return nil, apperrors.NewConfigValidationFailed(def.Name+".connector", fmt.Sprintf("unsupported connector %q", def.Connector))
		}
	}
	return &f, nil
}

// Registry holds one connector per named data source.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*connector.Connector
	dial    graph.Dialer
	logger  *zap.Logger
}

// NewRegistry creates an empty registry. A nil dialer uses the Neo4j driver.
func NewRegistry(dial graph.Dialer) *Registry {
	return &Registry{
		sources: make(map[string]*connector.Connector),
		dial:    dial,
		logger:  logger.Named("datasource"),
	}
}

// Register adds a connector under name without connecting it.
func (r *Registry) Register(name string, settings connector.Settings) (*connector.Connector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[name]; ok {
		return nil, apperrors.NewConfigValidationFailed("datasource", fmt.Sprintf("%q already registered", name))
	}
	c := connector.New(settings, r.dial)
	r.sources[name] = c
	return c, nil
}

// Open registers every data source in f and connects them concurrently.
func (r *Registry) Open(ctx context.Context, f *File) error {
	conns := make(map[string]*connector.Connector, len(f.DataSources))
	for _, def := range f.DataSources {
		c, err := r.Register(def.Name, def.Settings)
		if err != nil {
			return err
		}
		conns[def.Name] = c
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, c := range conns {
		name, c := name, c
		g.Go(func() error {
			if _, err := c.Connect(gctx); err != nil {
				return fmt.Errorf("datasource %s: %w", name, err)
			}
			r.logger.Info("Data source ready", zap.String("name", name), zap.String("uri", c.Settings().URI()))
			return nil
		})
	}
	return g.Wait()
}

// Get returns the connector registered under name.
func (r *Registry) Get(name string) (*connector.Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sources[name]
	return c, ok
}

// Names lists registered data sources in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close disconnects every data source, returning the first error encountered.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var first error
	for name, c := range r.sources {
		if err := c.Disconnect(ctx); err != nil {
			r.logger.Error("Failed to disconnect data source", zap.String("name", name), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
