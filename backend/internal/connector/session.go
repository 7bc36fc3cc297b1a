package connector

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"neo4j-connector/backend/internal/cypher"
	"neo4j-connector/backend/internal/graph"
	apperrors "neo4j-connector/backend/pkg/errors"
)

// State is the lifecycle position of a connector's session.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

const connectKey = "connect"

var (
	errNoSession    = errors.New("dialer returned no session")
	errDisconnected = errors.New("disconnected while connecting")
)

// Connect returns the shared session, establishing it on first use. Callers
// arriving while an attempt is in flight wait for that attempt and receive its
// session or its error; no second session is opened. A caller whose ctx ends
// stops waiting, the attempt itself carries on for the others.
func (c *Connector) Connect(ctx context.Context) (graph.Session, error) {
	if s := c.currentSession(); s != nil {
		return s, nil
	}

	ch := c.group.DoChan(connectKey, func() (any, error) {
		return c.establish(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		session, ok := res.Val.(graph.Session)
		if !ok || session == nil {
			return nil, apperrors.NewConnectionFailed(c.settings.URI(), apperrors.ErrNotConnected)
		}
		return session, nil
	case <-ctx.Done():
		return nil, apperrors.NewContextCancelled("connect", ctx.Err())
	}
}

func (c *Connector) establish(ctx context.Context) (graph.Session, error) {
	// A flight that just finished may already have stored a session.
	c.mu.RLock()
	current, generation := c.session, c.generation
	c.mu.RUnlock()
	if current != nil {
		return current, nil
	}

	c.connecting.Store(true)
	defer c.connecting.Store(false)

	ctx, cancel := context.WithTimeout(ctx, c.settings.ConnectTimeout)
	defer cancel()

	opts := c.settings.options()
	c.logger.Info("Connecting to graph store",
		zap.String("uri", opts.URI()),
		zap.String("user", opts.Username),
		zap.String("database", opts.Database),
	)

	session, err := c.dial(ctx, opts)
	if err == nil && session == nil {
		err = errNoSession
	}
	if err != nil {
		c.logger.Error("Failed to connect to graph store", zap.String("uri", opts.URI()), zap.Error(err))
		return nil, apperrors.NewConnectionFailed(opts.URI(), err)
	}

	c.mu.Lock()
	if c.generation != generation {
		// Disconnect ran while dialling; the caller asked for no session.
		c.mu.Unlock()
		_ = session.Close(context.WithoutCancel(ctx))
		c.logger.Info("Discarded session opened during disconnect", zap.String("uri", opts.URI()))
		return nil, apperrors.NewConnectionFailed(opts.URI(), errDisconnected)
	}
	c.session = session
	c.mu.Unlock()

	c.logger.Info("Connected to graph store", zap.String("uri", opts.URI()))
	return session, nil
}

// Disconnect closes the session and forgets it; the next operation reconnects.
// A connect in flight when Disconnect runs fails and its session is closed
// rather than stored. It is a no-op when no session exists.
func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.generation++
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	if err := session.Close(ctx); err != nil {
		return apperrors.NewConnectionFailed(c.settings.URI(), err)
	}
	c.logger.Info("Disconnected from graph store", zap.String("uri", c.settings.URI()))
	return nil
}

// Ping runs a no-op statement over the current session. It does not connect:
// without a session, or when the round trip fails or exceeds the ping timeout,
// it returns a connection error.
func (c *Connector) Ping(ctx context.Context) (bool, error) {
	session := c.currentSession()
	if session == nil {
		return false, apperrors.NewConnectionFailed(c.settings.URI(), apperrors.ErrNotConnected)
	}

	ctx, cancel := context.WithTimeout(ctx, c.settings.PingTimeout)
	defer cancel()

	stmt := cypher.Ping()
	if _, err := session.Run(ctx, stmt.Text, stmt.Params); err != nil {
		return false, apperrors.NewConnectionFailed(c.settings.URI(), err)
	}
	return true, nil
}

// State reports where the connector is in its lifecycle.
func (c *Connector) State() State {
	if c.currentSession() != nil {
		return StateConnected
	}
	if c.connecting.Load() {
		return StateConnecting
	}
	return StateDisconnected
}

// Connected reports whether a session is currently held.
func (c *Connector) Connected() bool {
	return c.currentSession() != nil
}

func (c *Connector) currentSession() graph.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}
