package graph

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// DialNeo4j establishes a Bolt connection using the official Neo4j driver and
// verifies it before returning. It satisfies Dialer.
func DialNeo4j(ctx context.Context, opts Options) (Session, error) {
	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI(), auth)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &neo4jSession{
		driver:   driver,
		database: opts.Database,
	}, nil
}

// neo4jSession owns one driver. The driver pools connections and is safe for
// concurrent use; driver sessions are not, so each statement gets its own.
type neo4jSession struct {
	driver   neo4j.DriverWithContext
	database string
	closed   atomic.Bool
}

func (s *neo4jSession) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	if s.closed.Load() {
		return Result{}, ErrSessionClosed
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, err
	}

	return consumeResult(ctx, res)
}

func (s *neo4jSession) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.driver.Close(ctx)
}

func consumeResult(ctx context.Context, res neo4j.ResultWithContext) (Result, error) {
	var records []Record
	for res.Next(ctx) {
		rec := res.Record()
		records = append(records, convertRecord(rec.Keys, rec.Values))
	}
	if err := res.Err(); err != nil {
		return Result{}, err
	}
	return Result{Records: records}, nil
}

func convertRecord(keys []string, values []any) Record {
	record := make(Record, len(keys))
	for i, key := range keys {
		record[key] = convertValue(values[i])
	}
	return record
}

func convertValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return Node{
			ElementID: v.ElementId,
			Labels:    v.Labels,
			Props:     v.Props,
		}
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	default:
		return v
	}
}

// IsConnectivityError reports whether err means the session cannot reach the store,
// as opposed to the store rejecting a statement.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionClosed) {
		return true
	}
	return neo4j.IsConnectivityError(err)
}
