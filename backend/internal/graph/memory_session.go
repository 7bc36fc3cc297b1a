package graph

import (
	"context"
	"sync"
)

// MemorySession is an in-memory Session used for unit testing statement
// translation without a running graph database. It records every statement and
// replays queued results in order.
type MemorySession struct {
	mu      sync.Mutex
	calls   []ExecutedQuery
	results []Result
	err     error
	closed  bool
}

// ExecutedQuery captures a cypher statement and parameters executed against the graph.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// NewMemorySession instantiates an empty in-memory session.
func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

// WithError configures the session to return the provided error for subsequent calls.
func (m *MemorySession) WithError(err error) *MemorySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// PushResult appends a result that will be returned on the next Run call.
func (m *MemorySession) PushResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
}

// PushNodes queues a result of one record per property map, each bound to n.
func (m *MemorySession) PushNodes(label string, props ...map[string]any) {
	records := make([]Record, 0, len(props))
	for _, p := range props {
		records = append(records, Record{"n": Node{Labels: []string{label}, Props: p}})
	}
	m.PushResult(Result{Records: records})
}

func (m *MemorySession) Run(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Result{}, ErrSessionClosed
	}

	m.calls = append(m.calls, ExecutedQuery{
		Query:  cypher,
		Params: cloneMap(params),
	})

	if m.err != nil {
		return Result{}, m.err
	}

	if len(m.results) == 0 {
		return Result{}, nil
	}

	res := m.results[0]
	m.results = m.results[1:]
	return res, nil
}

func (m *MemorySession) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MemorySession) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns a snapshot of executed statements.
func (m *MemorySession) Calls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.calls...)
}

// LastCall returns the most recent statement, or the zero value when none ran.
func (m *MemorySession) LastCall() ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ExecutedQuery{}
	}
	return m.calls[len(m.calls)-1]
}

// MemoryDialer hands out MemorySessions and counts how often it was dialled.
type MemoryDialer struct {
	mu       sync.Mutex
	sessions []*MemorySession
	dials    int
	opts     []Options
	err      error
	gate     chan struct{}
}

// NewMemoryDialer returns a dialer that yields the given sessions in order and
// fresh ones once they run out.
func NewMemoryDialer(sessions ...*MemorySession) *MemoryDialer {
	return &MemoryDialer{sessions: sessions}
}

// WithError makes every subsequent dial fail with err.
func (d *MemoryDialer) WithError(err error) *MemoryDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
	return d
}

// Hold blocks dials until the returned release func is called.
func (d *MemoryDialer) Hold() (release func()) {
	gate := make(chan struct{})
	d.mu.Lock()
	d.gate = gate
	d.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Dial satisfies Dialer.
func (d *MemoryDialer) Dial(ctx context.Context, opts Options) (Session, error) {
	d.mu.Lock()
	d.dials++
	d.opts = append(d.opts, opts)
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if len(d.sessions) == 0 {
		return NewMemorySession(), nil
	}
	s := d.sessions[0]
	d.sessions = d.sessions[1:]
	return s, nil
}

// Dials returns how many times Dial was invoked.
func (d *MemoryDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// DialedOptions returns the options passed to each dial.
func (d *MemoryDialer) DialedOptions() []Options {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Options(nil), d.opts...)
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
