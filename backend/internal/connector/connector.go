// Package connector maps CRUD calls expressed as model name plus plain data onto
// parameterized Cypher, executed over one shared session per data source.
package connector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"neo4j-connector/backend/internal/cypher"
	"neo4j-connector/backend/internal/graph"
	apperrors "neo4j-connector/backend/pkg/errors"
	"neo4j-connector/backend/pkg/logger"
)

// Connector owns the session to one graph store and translates operations into statements.
type Connector struct {
	settings Settings
	dial     graph.Dialer
	logger   *zap.Logger
	newID    func() string

	mu         sync.RWMutex
	session    graph.Session
	generation uint64 // bumped by Disconnect, guarded by mu
	connecting atomic.Bool
	group      singleflight.Group
}

// New creates a connector. A nil dialer uses the Neo4j Bolt driver. No network
// activity happens until the first operation or an explicit Connect.
func New(settings Settings, dial graph.Dialer) *Connector {
	if dial == nil {
		dial = graph.DialNeo4j
	}
	return &Connector{
		settings: settings.withDefaults(),
		dial:     dial,
		logger:   logger.Named("connector"),
		newID:    func() string { return uuid.New().String() },
	}
}

// Settings returns the effective settings, defaults applied.
func (c *Connector) Settings() Settings {
	return c.settings
}

func (c *Connector) execute(ctx context.Context, op string, stmt cypher.Statement) (graph.Result, error) {
	session, err := c.Connect(ctx)
	if err != nil {
		return graph.Result{}, err
	}

	if c.settings.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.QueryTimeout)
		defer cancel()
	}

	if c.settings.Debug {
		c.logger.Debug("Executing statement",
			zap.String("operation", op),
			zap.String("statement", stmt.Text),
			zap.Strings("params", paramNames(stmt.Params)),
		)
	}

	start := time.Now()
	res, err := session.Run(ctx, stmt.Text, stmt.Params)
	if err != nil {
		err = c.classify(ctx, op, stmt, err)
		c.logger.Error("Statement failed",
			zap.String("operation", op),
			zap.String("kind", string(apperrors.TypeOf(err))),
			zap.Error(err),
		)
		return graph.Result{}, err
	}

	if c.settings.Debug {
		c.logger.Debug("Statement completed",
			zap.String("operation", op),
			zap.Int("records", len(res.Records)),
			zap.Duration("latency", time.Since(start)),
		)
	}
	return res, nil
}

func (c *Connector) classify(ctx context.Context, op string, stmt cypher.Statement, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.NewContextTimeout(op, c.settings.QueryTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return apperrors.NewContextCancelled(op, err)
	case graph.IsConnectivityError(err):
		return apperrors.NewConnectionFailed(c.settings.URI(), err)
	default:
		return apperrors.NewExecutionFailed(stmt.Text, err)
	}
}

// paramNames lists parameter names only; values may be sensitive.
func paramNames(params map[string]any) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
