package cypher

import (
	"fmt"
	"strings"

	apperrors "neo4j-connector/backend/pkg/errors"
)

const (
	// IDField is the property every record is keyed on.
	IDField = "id"
	// CountKey is the column aggregate statements return their count under.
	CountKey = "count"
	// CreatedKey is the column MergeWhere reports node creation under.
	CreatedKey = "created"

	dataParam   = "data"
	wherePrefix = "where_"
	createdFlag = "__created"
)

// Query describes a read over one label.
type Query struct {
	Where map[string]any
	Order []string
	Skip  int
	Limit int
}

// Create builds CREATE (n:Label {...}) RETURN n with every field as a parameter.
func Create(model string, data map[string]any) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	block, params, err := PatternBlock(data, "")
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Text:   fmt.Sprintf("CREATE %s RETURN %s", nodePattern(label, block), NodeVar),
		Params: params,
	}, nil
}

// Match builds MATCH (n:Label {...}) RETURN n with optional ordering and paging.
// An empty Where matches every node carrying the label.
func Match(model string, q Query) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	block, params, err := PatternBlock(q.Where, "")
	if err != nil {
		return Statement{}, err
	}
	order, err := orderClause(q.Order)
	if err != nil {
		return Statement{}, err
	}
	if q.Skip < 0 {
		return Statement{}, apperrors.NewValidationFailed("skip", "must not be negative")
	}
	if q.Limit < 0 {
		return Statement{}, apperrors.NewValidationFailed("limit", "must not be negative")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MATCH %s RETURN %s", nodePattern(label, block), NodeVar)
	b.WriteString(order)
	if q.Skip > 0 {
		fmt.Fprintf(&b, " SKIP %d", q.Skip)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return Statement{Text: b.String(), Params: params}, nil
}

// Count builds MATCH (n:Label {...}) RETURN count(n) AS count.
func Count(model string, where map[string]any) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	block, params, err := PatternBlock(where, "")
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Text:   fmt.Sprintf("MATCH %s RETURN count(%s) AS %s", nodePattern(label, block), NodeVar, CountKey),
		Params: params,
	}, nil
}

// DeleteByID removes the node carrying id together with its relationships.
func DeleteByID(model string, id any) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Text: fmt.Sprintf("MATCH %s DETACH DELETE %s RETURN count(*) AS %s",
			idPattern(label), NodeVar, CountKey),
		Params: map[string]any{IDField: id},
	}, nil
}

// ReplaceByID overwrites every property of the node carrying id. The id itself
// is written back so the post-image stays addressable.
func ReplaceByID(model string, id any, data map[string]any) (Statement, error) {
	return setByID("MATCH", "=", model, id, data)
}

// UpdateByID merges data into the properties of the node carrying id.
func UpdateByID(model string, id any, data map[string]any) (Statement, error) {
	return setByID("MATCH", "+=", model, id, data)
}

// MergeByID upserts the node carrying id, replacing or merging its properties.
func MergeByID(model string, id any, data map[string]any, replace bool) (Statement, error) {
	op := "+="
	if replace {
		op = "="
	}
	return setByID("MERGE", op, model, id, data)
}

func setByID(verb, op, model string, id any, data map[string]any) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	if err := ValidateFields(data); err != nil {
		return Statement{}, err
	}
	props := merge(make(map[string]any, len(data)+1), data)
	props[IDField] = id

	return Statement{
		Text: fmt.Sprintf("%s %s SET %s %s $%s RETURN %s",
			verb, idPattern(label), NodeVar, op, dataParam, NodeVar),
		Params: map[string]any{IDField: id, dataParam: props},
	}, nil
}

// UpdateWhere merges data into every node matching where and returns how many changed.
func UpdateWhere(model string, where, data map[string]any) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	if err := ValidateFields(data); err != nil {
		return Statement{}, err
	}
	block, params, err := PatternBlock(where, wherePrefix)
	if err != nil {
		return Statement{}, err
	}
	params[dataParam] = data

	return Statement{
		Text: fmt.Sprintf("MATCH %s SET %s += $%s RETURN count(%s) AS %s",
			nodePattern(label, block), NodeVar, dataParam, NodeVar, CountKey),
		Params: params,
	}, nil
}

// MergeWhere finds the node matching where or creates it with data, in one
// statement. The created column tells the two cases apart.
func MergeWhere(model string, where, data map[string]any) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	if len(where) == 0 {
		return Statement{}, apperrors.NewValidationFailed("where", "find-or-create needs at least one field")
	}
	if err := ValidateFields(data); err != nil {
		return Statement{}, err
	}
	block, params, err := PatternBlock(where, wherePrefix)
	if err != nil {
		return Statement{}, err
	}
	params[dataParam] = data

	text := fmt.Sprintf(
		"MERGE %s ON CREATE SET %s += $%s, %s.%s = true "+
			"WITH %s, coalesce(%s.%s, false) AS %s REMOVE %s.%s RETURN %s, %s",
		nodePattern(label, block), NodeVar, dataParam, NodeVar, createdFlag,
		NodeVar, NodeVar, createdFlag, CreatedKey, NodeVar, createdFlag, NodeVar, CreatedKey,
	)
	return Statement{Text: text, Params: params}, nil
}

// Ping is the trivial round-trip statement.
func Ping() Statement {
	return Statement{Text: "RETURN 1"}
}

// UniqueConstraint builds an idempotent uniqueness constraint on model.field.
func UniqueConstraint(model, field string) (Statement, error) {
	label, err := Label(model)
	if err != nil {
		return Statement{}, err
	}
	if err := ValidateIdentifier("field", field); err != nil {
		return Statement{}, err
	}
	name := strings.ToLower(label) + "_" + field + "_unique"
	return Statement{
		Text: fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR (%s:%s) REQUIRE %s.%s IS UNIQUE",
			name, NodeVar, label, NodeVar, field),
	}, nil
}

func idPattern(label string) string {
	return nodePattern(label, fmt.Sprintf("{%s: $%s}", IDField, IDField))
}

// orderClause turns ["name ASC", "age DESC"] into " ORDER BY n.name ASC, n.age DESC".
func orderClause(order []string) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(order))
	for _, o := range order {
		fields := strings.Fields(o)
		if len(fields) == 0 || len(fields) > 2 {
			return "", apperrors.NewValidationFailed("order", fmt.Sprintf("cannot parse %q", o))
		}
		if err := ValidateIdentifier("order", fields[0]); err != nil {
			return "", err
		}
		dir := "ASC"
		if len(fields) == 2 {
			dir = strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return "", apperrors.NewValidationFailed("order", fmt.Sprintf("unknown direction %q", fields[1]))
			}
		}
		parts = append(parts, fmt.Sprintf("%s.%s %s", NodeVar, fields[0], dir))
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}
