package graph

import (
	"context"
	"errors"
	"fmt"
)

// Session is the single logical connection a connector submits statements over.
// Implementations must be safe for concurrent Run calls.
type Session interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
	Close(ctx context.Context) error
}

// Dialer establishes a Session from connection options.
type Dialer func(ctx context.Context, opts Options) (Session, error)

// Options configures a Session.
type Options struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Encrypted bool
	Database  string
}

// URI returns the Bolt address for the options, bolt+s when encryption is requested.
func (o Options) URI() string {
	scheme := "bolt"
	if o.Encrypted {
		scheme = "bolt+s"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, o.Host, o.Port)
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Node is a matched graph node with its labels and property map.
type Node struct {
	ElementID string
	Labels    []string
	Props     map[string]any
}

// ErrSessionClosed is returned by Run once the session has been closed.
var ErrSessionClosed = errors.New("graph: session closed")
