package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"neo4j-connector/backend/internal/graph"
	apperrors "neo4j-connector/backend/pkg/errors"
)

// blockingSession never answers until the caller's context ends.
type blockingSession struct{}

func (blockingSession) Run(ctx context.Context, _ string, _ map[string]any) (graph.Result, error) {
	<-ctx.Done()
	return graph.Result{}, ctx.Err()
}

func (blockingSession) Close(context.Context) error { return nil }

func newTestConnector(t *testing.T, settings Settings, sessions ...*graph.MemorySession) (*Connector, *graph.MemoryDialer) {
	t.Helper()
	dialer := graph.NewMemoryDialer(sessions...)
	return New(settings, dialer.Dial), dialer
}

func TestConnect_ReusesSession(t *testing.T) {
	ctx := context.Background()
	c, dialer := newTestConnector(t, Settings{})

	first, err := c.Connect(ctx)
	require.NoError(t, err)
	second, err := c.Connect(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, dialer.Dials())
	assert.Equal(t, StateConnected, c.State())
	assert.True(t, c.Connected())
}

func TestConnect_PassesSettingsToDialer(t *testing.T) {
	c, dialer := newTestConnector(t, Settings{
		Host:      "graph.internal",
		Port:      7688,
		User:      "reader",
		Password:  "secret",
		Encrypted: true,
		Database:  "people",
	})

	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	opts := dialer.DialedOptions()
	require.Len(t, opts, 1)
	assert.Equal(t, "bolt+s://graph.internal:7688", opts[0].URI())
	assert.Equal(t, "reader", opts[0].Username)
	assert.Equal(t, "secret", opts[0].Password)
	assert.Equal(t, "people", opts[0].Database)
}

func TestConnect_ConcurrentCallersShareOneSession(t *testing.T) {
	c, dialer := newTestConnector(t, Settings{})
	release := dialer.Hold()
	defer release()

	const callers = 25
	sessions := make([]graph.Session, callers)

	g, gctx := errgroup.WithContext(context.Background())
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			s, err := c.Connect(gctx)
			sessions[i] = s
			return err
		})
	}

	require.Eventually(t, func() bool { return dialer.Dials() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateConnecting, c.State())

	release()
	require.NoError(t, g.Wait())

	assert.Equal(t, 1, dialer.Dials(), "exactly one session must be established")
	for i := 1; i < callers; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
	assert.Equal(t, StateConnected, c.State())
}

func TestConnect_FailureIsConnectionError(t *testing.T) {
	c, dialer := newTestConnector(t, Settings{})
	dialer.WithError(errors.New("connection refused"))

	_, err := c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConnection))
	assert.Equal(t, StateDisconnected, c.State())

	// No session was stored, so the next call dials again.
	_, err = c.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, dialer.Dials())
}

func TestConnect_CallerStopsWaitingOnCancel(t *testing.T) {
	c, dialer := newTestConnector(t, Settings{})
	release := dialer.Hold()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))

	release()
	require.Eventually(t, c.Connected, time.Second, time.Millisecond)
	assert.Equal(t, 1, dialer.Dials())
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	session := graph.NewMemorySession()
	c, dialer := newTestConnector(t, Settings{}, session)

	require.NoError(t, c.Disconnect(ctx), "disconnect before connect is a no-op")

	_, err := c.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Disconnect(ctx))

	assert.True(t, session.Closed())
	assert.Equal(t, StateDisconnected, c.State())
	require.NoError(t, c.Disconnect(ctx), "second disconnect is a no-op")

	_, err = c.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dialer.Dials())
}

func TestDisconnect_DuringConnectDiscardsSession(t *testing.T) {
	session := graph.NewMemorySession()
	c, dialer := newTestConnector(t, Settings{}, session)
	release := dialer.Hold()
	defer release()

	errs := make(chan error, 1)
	go func() {
		_, err := c.Connect(context.Background())
		errs <- err
	}()

	require.Eventually(t, func() bool { return dialer.Dials() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.Disconnect(context.Background()))

	release()
	err := <-errs
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConnection))

	assert.Equal(t, StateDisconnected, c.State())
	assert.True(t, session.Closed(), "the late session must be closed, not leaked")

	// A fresh connect afterwards succeeds.
	_, err = c.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateConnected, c.State())
	assert.Equal(t, 2, dialer.Dials())
}

func TestConnect_NilSessionIsConnectionError(t *testing.T) {
	dial := func(context.Context, graph.Options) (graph.Session, error) {
		return nil, nil
	}
	c := New(Settings{}, dial)

	require.NotPanics(t, func() {
		_, err := c.Connect(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConnection))
	})
	assert.Equal(t, StateDisconnected, c.State())
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	session := graph.NewMemorySession()
	c, _ := newTestConnector(t, Settings{}, session)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	ok, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "RETURN 1", session.LastCall().Query)
}

func TestPing_NotConnected(t *testing.T) {
	c, dialer := newTestConnector(t, Settings{})

	ok, err := c.Ping(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConnection))
	assert.Zero(t, dialer.Dials(), "ping must not connect")
}

func TestPing_AfterDisconnect(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestConnector(t, Settings{})

	_, err := c.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Disconnect(ctx))

	_, err = c.Ping(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConnection))
}

func TestPing_StaleSession(t *testing.T) {
	ctx := context.Background()
	session := graph.NewMemorySession()
	c, _ := newTestConnector(t, Settings{}, session)

	_, err := c.Connect(ctx)
	require.NoError(t, err)
	_ = session.Close(ctx)

	_, err = c.Ping(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConnection))
	assert.ErrorIs(t, err, graph.ErrSessionClosed)
}

func TestPing_UnresponsiveStoreTimesOut(t *testing.T) {
	dial := func(context.Context, graph.Options) (graph.Session, error) {
		return blockingSession{}, nil
	}
	c := New(Settings{PingTimeout: 20 * time.Millisecond}, dial)

	_, err := c.Connect(context.Background())
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConnection))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSettings_Defaults(t *testing.T) {
	c := New(Settings{}, nil)
	s := c.Settings()

	assert.Equal(t, "localhost", s.Host)
	assert.Equal(t, 7687, s.Port)
	assert.Equal(t, "bolt://localhost:7687", s.URI())
	assert.Equal(t, defaultPingTimeout, s.PingTimeout)
	assert.Equal(t, defaultConnectTimeout, s.ConnectTimeout)
	assert.Zero(t, s.QueryTimeout)
}
