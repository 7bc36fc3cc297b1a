package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

func TestOptions_URI(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"plain", Options{Host: "localhost", Port: 7687}, "bolt://localhost:7687"},
		{"encrypted", Options{Host: "db.example.com", Port: 7688, Encrypted: true}, "bolt+s://db.example.com:7688"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.URI(); got != tt.want {
				t.Errorf("URI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertRecord_Node(t *testing.T) {
	keys := []string{"n"}
	values := []any{
		dbtype.Node{
			ElementId: "4:abc:1",
			Labels:    []string{"Person"},
			Props:     map[string]any{"name": "a", "age": int64(3)},
		},
	}

	got := convertRecord(keys, values)

	want := Record{
		"n": Node{
			ElementID: "4:abc:1",
			Labels:    []string{"Person"},
			Props:     map[string]any{"name": "a", "age": int64(3)},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("convertRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertRecord_ScalarsAndLists(t *testing.T) {
	keys := []string{"count", "nodes"}
	values := []any{
		int64(2),
		[]any{dbtype.Node{Props: map[string]any{"id": "x"}}},
	}

	got := convertRecord(keys, values)

	want := Record{
		"count": int64(2),
		"nodes": []any{Node{Props: map[string]any{"id": "x"}}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("convertRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestIsConnectivityError(t *testing.T) {
	if IsConnectivityError(nil) {
		t.Error("nil must not be a connectivity error")
	}
	if !IsConnectivityError(ErrSessionClosed) {
		t.Error("ErrSessionClosed must be a connectivity error")
	}
	if !IsConnectivityError(fmt.Errorf("wrapped: %w", ErrSessionClosed)) {
		t.Error("wrapped ErrSessionClosed must be a connectivity error")
	}
	if IsConnectivityError(errors.New("syntax error")) {
		t.Error("plain errors must not be connectivity errors")
	}
}

func TestMemorySession_RecordsAndReplays(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()
	s.PushNodes("Person", map[string]any{"id": "1"})

	res, err := s.Run(ctx, "MATCH (n:Person) RETURN n", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}

	res, err = s.Run(ctx, "RETURN 1", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("expected empty result once queue drained, got %d", len(res.Records))
	}

	calls := s.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Params["x"] != 1 {
		t.Errorf("params not recorded: %v", calls[0].Params)
	}
}

func TestMemorySession_RunAfterClose(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()
	_ = s.Close(ctx)

	_, err := s.Run(ctx, "RETURN 1", nil)
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestMemoryDialer_HoldAndCount(t *testing.T) {
	d := NewMemoryDialer()
	release := d.Hold()

	done := make(chan error, 1)
	go func() {
		_, err := d.Dial(context.Background(), Options{Host: "h", Port: 1})
		done <- err
	}()

	release()
	if err := <-done; err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if d.Dials() != 1 {
		t.Errorf("expected 1 dial, got %d", d.Dials())
	}
	if opts := d.DialedOptions(); len(opts) != 1 || opts[0].Host != "h" {
		t.Errorf("unexpected dialed options: %+v", opts)
	}
}
