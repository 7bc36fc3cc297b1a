package connector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"neo4j-connector/backend/internal/cypher"
	"neo4j-connector/backend/internal/graph"
	apperrors "neo4j-connector/backend/pkg/errors"
)

// Record is one entity as a plain field/value map.
type Record map[string]any

// ID returns the record's identifier, if any.
func (r Record) ID() (any, bool) {
	id, ok := r[cypher.IDField]
	if !ok || id == nil || id == "" {
		return nil, false
	}
	return id, true
}

// UnmarshalJSON decodes a JSON object keeping integral numbers as int64, so
// they are stored as Integer properties rather than Float.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*r = nil
		return nil
	}
	out := make(Record, len(raw))
	for k, v := range raw {
		out[k] = fromJSONValue(v)
	}
	*r = out
	return nil
}

func fromJSONValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, item := range t {
			t[k] = fromJSONValue(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = fromJSONValue(item)
		}
		return t
	default:
		return v
	}
}

// Filter selects records of one model. Where is an equality filter; an empty
// Where matches every record.
type Filter struct {
	Where   Record   `json:"where,omitempty"`
	Order   []string `json:"order,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Skip    int      `json:"skip,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Include []string `json:"include,omitempty"`
}

// normalizeValues copies data, turning dates into epoch milliseconds.
func normalizeValues(data Record) Record {
	out := make(Record, len(data))
	for k, v := range data {
		switch t := v.(type) {
		case time.Time:
			out[k] = t.UTC().UnixMilli()
		case *time.Time:
			if t == nil {
				out[k] = nil
			} else {
				out[k] = t.UTC().UnixMilli()
			}
		default:
			out[k] = v
		}
	}
	return out
}

// checkWhere rejects filter shapes that equality patterns cannot express.
func checkWhere(where Record) error {
	for field, value := range where {
		switch strings.ToLower(field) {
		case "and", "or", "nor":
			return apperrors.NewNotImplemented(fmt.Sprintf("%s clause in where filter", field))
		}
		switch value.(type) {
		case nil:
			return apperrors.NewNotImplemented(fmt.Sprintf("null comparison on field %q", field))
		case map[string]any, Record:
			return apperrors.NewNotImplemented(fmt.Sprintf("operator filter on field %q", field))
		}
	}
	return nil
}

// extractNode pulls the property map of the node bound to n out of a result row.
func extractNode(rec graph.Record) (Record, error) {
	switch node := rec[cypher.NodeVar].(type) {
	case graph.Node:
		return copyProps(node.Props), nil
	case map[string]any:
		return copyProps(node), nil
	default:
		return nil, fmt.Errorf("result row has no node bound to %q (got %T)", cypher.NodeVar, node)
	}
}

func copyProps(props map[string]any) Record {
	out := make(Record, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// project keeps only the requested fields; no fields keeps everything.
func project(rec Record, fields []string) Record {
	if len(fields) == 0 {
		return rec
	}
	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

func countOf(res graph.Result) int64 {
	if len(res.Records) == 0 {
		return 0
	}
	switch n := res.Records[0][cypher.CountKey].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
