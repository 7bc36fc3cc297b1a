package connector

import (
	"context"
	"fmt"
	"sort"

	"neo4j-connector/backend/internal/cypher"
	apperrors "neo4j-connector/backend/pkg/errors"
)

// Create persists data as a new node labelled after model and returns its id,
// generating one when data carries none. Dates are stored as epoch milliseconds.
func (c *Connector) Create(ctx context.Context, model string, data Record) (any, error) {
	props := c.withID(normalizeValues(data))

	stmt, err := cypher.Create(model, props)
	if err != nil {
		return nil, err
	}
	if _, err := c.execute(ctx, "create", stmt); err != nil {
		return nil, err
	}
	return props[cypher.IDField], nil
}

// All returns every record of model matching filter, in the order the store
// returns them unless filter.Order says otherwise.
func (c *Connector) All(ctx context.Context, model string, filter Filter) ([]Record, error) {
	if len(filter.Include) > 0 {
		return nil, apperrors.NewNotImplemented("include filter")
	}
	if err := checkWhere(filter.Where); err != nil {
		return nil, err
	}

	stmt, err := cypher.Match(model, cypher.Query{
		Where: normalizeValues(filter.Where),
		Order: filter.Order,
		Skip:  filter.Skip,
		Limit: filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	res, err := c.execute(ctx, "all", stmt)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(res.Records))
	for _, row := range res.Records {
		rec, err := extractNode(row)
		if err != nil {
			return nil, apperrors.NewExecutionFailed(stmt.Text, err)
		}
		records = append(records, project(rec, filter.Fields))
	}
	return records, nil
}

// FindByID returns the record carrying id.
func (c *Connector) FindByID(ctx context.Context, model string, id any) (Record, error) {
	if err := requireID("findById", id); err != nil {
		return nil, err
	}
	records, err := c.All(ctx, model, Filter{Where: Record{cypher.IDField: id}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewRecordNotFound(model, id)
	}
	return records[0], nil
}

// Count returns how many records of model match where.
func (c *Connector) Count(ctx context.Context, model string, where Record) (int64, error) {
	if err := checkWhere(where); err != nil {
		return 0, err
	}
	stmt, err := cypher.Count(model, normalizeValues(where))
	if err != nil {
		return 0, err
	}
	res, err := c.execute(ctx, "count", stmt)
	if err != nil {
		return 0, err
	}
	return countOf(res), nil
}

// DestroyAll deletes the record identified by where.id. Deletion by any other
// predicate is not supported.
func (c *Connector) DestroyAll(ctx context.Context, model string, where Record) error {
	if err := checkWhere(where); err != nil {
		return err
	}
	id, ok := where.ID()
	if !ok {
		return apperrors.NewMissingIdentifier("destroyAll")
	}
	if extra := otherFields(where); len(extra) > 0 {
		return apperrors.NewNotImplemented(fmt.Sprintf("destroyAll by fields %v", extra))
	}
	if err := checkID("destroyAll", id); err != nil {
		return err
	}

	stmt, err := cypher.DeleteByID(model, id)
	if err != nil {
		return err
	}
	_, err = c.execute(ctx, "destroyAll", stmt)
	return err
}

// Destroy deletes the record carrying id and reports how many nodes went away.
func (c *Connector) Destroy(ctx context.Context, model string, id any) (int64, error) {
	if err := requireID("destroy", id); err != nil {
		return 0, err
	}
	stmt, err := cypher.DeleteByID(model, id)
	if err != nil {
		return 0, err
	}
	res, err := c.execute(ctx, "destroy", stmt)
	if err != nil {
		return 0, err
	}
	return countOf(res), nil
}

// ReplaceByID overwrites every property of the record carrying id with data and
// returns the post-image.
func (c *Connector) ReplaceByID(ctx context.Context, model string, id any, data Record) (Record, error) {
	if err := requireID("replaceById", id); err != nil {
		return nil, err
	}
	stmt, err := cypher.ReplaceByID(model, id, normalizeValues(data))
	if err != nil {
		return nil, err
	}
	return c.single(ctx, "replaceById", model, id, stmt)
}

// Save replaces the stored record with data, keyed on data's id.
func (c *Connector) Save(ctx context.Context, model string, data Record) (Record, error) {
	id, ok := data.ID()
	if !ok {
		return nil, apperrors.NewMissingIdentifier("save")
	}
	return c.ReplaceByID(ctx, model, id, data)
}

// UpdateAttributes merges data into the record carrying id and returns the post-image.
func (c *Connector) UpdateAttributes(ctx context.Context, model string, id any, data Record) (Record, error) {
	if err := requireID("updateAttributes", id); err != nil {
		return nil, err
	}
	stmt, err := cypher.UpdateByID(model, id, normalizeValues(data))
	if err != nil {
		return nil, err
	}
	return c.single(ctx, "updateAttributes", model, id, stmt)
}

// Update merges data into every record matching where and returns how many changed.
func (c *Connector) Update(ctx context.Context, model string, where, data Record) (int64, error) {
	if err := checkWhere(where); err != nil {
		return 0, err
	}
	if _, ok := data.ID(); ok {
		return 0, apperrors.NewValidationFailed("id", "cannot be changed by a bulk update")
	}
	stmt, err := cypher.UpdateWhere(model, normalizeValues(where), normalizeValues(data))
	if err != nil {
		return 0, err
	}
	res, err := c.execute(ctx, "update", stmt)
	if err != nil {
		return 0, err
	}
	return countOf(res), nil
}

// UpdateOrCreate merges data into the record carrying data's id, creating it if absent.
func (c *Connector) UpdateOrCreate(ctx context.Context, model string, data Record) (Record, error) {
	return c.upsert(ctx, "updateOrCreate", model, data, false)
}

// ReplaceOrCreate replaces the record carrying data's id, creating it if absent.
func (c *Connector) ReplaceOrCreate(ctx context.Context, model string, data Record) (Record, error) {
	return c.upsert(ctx, "replaceOrCreate", model, data, true)
}

func (c *Connector) upsert(ctx context.Context, op, model string, data Record, replace bool) (Record, error) {
	props := c.withID(normalizeValues(data))
	id := props[cypher.IDField]
	if err := checkID(op, id); err != nil {
		return nil, err
	}

	stmt, err := cypher.MergeByID(model, id, props, replace)
	if err != nil {
		return nil, err
	}
	return c.single(ctx, op, model, id, stmt)
}

// FindOrCreate returns the first record matching filter.Where, creating it from
// data when none exists. The bool reports whether a record was created.
func (c *Connector) FindOrCreate(ctx context.Context, model string, filter Filter, data Record) (Record, bool, error) {
	if err := checkWhere(filter.Where); err != nil {
		return nil, false, err
	}
	props := c.withID(normalizeValues(data))

	stmt, err := cypher.MergeWhere(model, normalizeValues(filter.Where), props)
	if err != nil {
		return nil, false, err
	}
	res, err := c.execute(ctx, "findOrCreate", stmt)
	if err != nil {
		return nil, false, err
	}
	if len(res.Records) == 0 {
		return nil, false, apperrors.NewExecutionFailed(stmt.Text, fmt.Errorf("merge returned no rows"))
	}

	row := res.Records[0]
	rec, err := extractNode(row)
	if err != nil {
		return nil, false, apperrors.NewExecutionFailed(stmt.Text, err)
	}
	created, _ := row[cypher.CreatedKey].(bool)
	return project(rec, filter.Fields), created, nil
}

// EnsureUnique installs a uniqueness constraint on model.field. With one on id,
// the merge-based upserts are safe against concurrent creation.
func (c *Connector) EnsureUnique(ctx context.Context, model, field string) error {
	stmt, err := cypher.UniqueConstraint(model, field)
	if err != nil {
		return err
	}
	_, err = c.execute(ctx, "ensureUnique", stmt)
	return err
}

// single runs a statement expected to return the node carrying id.
func (c *Connector) single(ctx context.Context, op, model string, id any, stmt cypher.Statement) (Record, error) {
	res, err := c.execute(ctx, op, stmt)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, apperrors.NewRecordNotFound(model, id)
	}
	rec, err := extractNode(res.Records[0])
	if err != nil {
		return nil, apperrors.NewExecutionFailed(stmt.Text, err)
	}
	return rec, nil
}

// withID assigns a generated identifier when props carries none.
func (c *Connector) withID(props Record) Record {
	if _, ok := props.ID(); !ok {
		props[cypher.IDField] = c.newID()
	}
	return props
}

// requireID rejects a missing identifier and one that is not a plain value.
func requireID(op string, id any) error {
	if id == nil || id == "" {
		return apperrors.NewMissingIdentifier(op)
	}
	return checkID(op, id)
}

// checkID rejects operator maps and lists used as an identifier; bound as a
// parameter they would match nothing instead of failing.
func checkID(op string, id any) error {
	switch id.(type) {
	case map[string]any, Record, []any:
		return apperrors.NewNotImplemented(fmt.Sprintf("%s by id operator %v", op, id))
	}
	return nil
}

func otherFields(where Record) []string {
	var fields []string
	for k := range where {
		if k != cypher.IDField {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}
