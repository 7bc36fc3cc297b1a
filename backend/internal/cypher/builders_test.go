package cypher

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "neo4j-connector/backend/pkg/errors"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		model   string
		want    string
		wantErr bool
	}{
		{model: "person", want: "Person"},
		{model: "Person", want: "Person"},
		{model: "blogPost", want: "BlogPost"},
		{model: "_internal", want: "_internal"},
		{model: "", wantErr: true},
		{model: "person) DETACH DELETE (m", wantErr: true},
		{model: "9lives", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := Label(tt.model)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternBlock(t *testing.T) {
	block, params, err := PatternBlock(map[string]any{"name": "a", "age": 3}, "")
	require.NoError(t, err)
	assert.Equal(t, "{age: $age, name: $name}", block)
	assert.Equal(t, map[string]any{"name": "a", "age": 3}, params)
}

func TestPatternBlock_Prefix(t *testing.T) {
	block, params, err := PatternBlock(map[string]any{"name": "a"}, "where_")
	require.NoError(t, err)
	assert.Equal(t, "{name: $where_name}", block)
	assert.Equal(t, map[string]any{"where_name": "a"}, params)
}

func TestPatternBlock_Empty(t *testing.T) {
	block, params, err := PatternBlock(nil, "")
	require.NoError(t, err)
	assert.Empty(t, block)
	assert.Empty(t, params)
}

func TestPatternBlock_RejectsInjectedFieldName(t *testing.T) {
	_, _, err := PatternBlock(map[string]any{"name}) DETACH DELETE (x": 1}, "")
	require.Error(t, err)

	var verr *apperrors.ErrValidationFailed
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "field", verr.Field)
}

func TestCreate(t *testing.T) {
	got, err := Create("person", map[string]any{"id": "1", "name": "a"})
	require.NoError(t, err)

	want := Statement{
		Text:   "CREATE (n:Person {id: $id, name: $name}) RETURN n",
		Params: map[string]any{"id": "1", "name": "a"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Create() mismatch (-want +got):\n%s", diff)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  Statement
	}{
		{
			name:  "empty filter",
			query: Query{},
			want:  Statement{Text: "MATCH (n:Person) RETURN n", Params: map[string]any{}},
		},
		{
			name:  "equality filter",
			query: Query{Where: map[string]any{"name": "a"}},
			want: Statement{
				Text:   "MATCH (n:Person {name: $name}) RETURN n",
				Params: map[string]any{"name": "a"},
			},
		},
		{
			name:  "order and paging",
			query: Query{Order: []string{"age desc", "name"}, Skip: 5, Limit: 10},
			want: Statement{
				Text:   "MATCH (n:Person) RETURN n ORDER BY n.age DESC, n.name ASC SKIP 5 LIMIT 10",
				Params: map[string]any{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match("person", tt.query)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatch_InvalidOrder(t *testing.T) {
	_, err := Match("person", Query{Order: []string{"age sideways"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = Match("person", Query{Order: []string{"n.age; DROP"}})
	require.Error(t, err)
}

func TestMatch_NegativePaging(t *testing.T) {
	_, err := Match("person", Query{Limit: -1})
	require.Error(t, err)
	_, err = Match("person", Query{Skip: -1})
	require.Error(t, err)
}

func TestCount(t *testing.T) {
	got, err := Count("person", map[string]any{"age": 3})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:Person {age: $age}) RETURN count(n) AS count", got.Text)
	assert.Equal(t, map[string]any{"age": 3}, got.Params)
}

func TestDeleteByID(t *testing.T) {
	got, err := DeleteByID("person", "abc")
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:Person {id: $id}) DETACH DELETE n RETURN count(*) AS count", got.Text)
	assert.Equal(t, map[string]any{"id": "abc"}, got.Params)
}

func TestReplaceByID(t *testing.T) {
	data := map[string]any{"name": "b"}
	got, err := ReplaceByID("person", "abc", data)
	require.NoError(t, err)

	want := Statement{
		Text: "MATCH (n:Person {id: $id}) SET n = $data RETURN n",
		Params: map[string]any{
			"id":   "abc",
			"data": map[string]any{"id": "abc", "name": "b"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReplaceByID() mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, data, "id", "caller's map must not be mutated")
}

func TestUpdateByID(t *testing.T) {
	got, err := UpdateByID("person", "abc", map[string]any{"age": 4})
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n:Person {id: $id}) SET n += $data RETURN n", got.Text)
}

func TestMergeByID(t *testing.T) {
	got, err := MergeByID("person", "abc", map[string]any{"age": 4}, true)
	require.NoError(t, err)
	assert.Equal(t, "MERGE (n:Person {id: $id}) SET n = $data RETURN n", got.Text)

	got, err = MergeByID("person", "abc", map[string]any{"age": 4}, false)
	require.NoError(t, err)
	assert.Equal(t, "MERGE (n:Person {id: $id}) SET n += $data RETURN n", got.Text)
}

func TestSetByID_RejectsBadField(t *testing.T) {
	_, err := ReplaceByID("person", "abc", map[string]any{"bad key": 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestUpdateWhere(t *testing.T) {
	got, err := UpdateWhere("person", map[string]any{"data": "x"}, map[string]any{"age": 4})
	require.NoError(t, err)

	want := Statement{
		Text: "MATCH (n:Person {data: $where_data}) SET n += $data RETURN count(n) AS count",
		Params: map[string]any{
			"where_data": "x",
			"data":       map[string]any{"age": 4},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("UpdateWhere() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeWhere(t *testing.T) {
	got, err := MergeWhere("person", map[string]any{"name": "a"}, map[string]any{"id": "1", "name": "a"})
	require.NoError(t, err)

	assert.Equal(t,
		"MERGE (n:Person {name: $where_name}) ON CREATE SET n += $data, n.__created = true "+
			"WITH n, coalesce(n.__created, false) AS created REMOVE n.__created RETURN n, created",
		got.Text)
	assert.Equal(t, "a", got.Params["where_name"])

	_, err = MergeWhere("person", nil, map[string]any{"id": "1"})
	require.Error(t, err)
}

func TestUniqueConstraint(t *testing.T) {
	stmt, err := UniqueConstraint("person", "id")
	require.NoError(t, err)
	assert.Equal(t, "CREATE CONSTRAINT person_id_unique IF NOT EXISTS FOR (n:Person) REQUIRE n.id IS UNIQUE", stmt.Text)

	_, err = UniqueConstraint("person", "id) DETACH DELETE (m")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	assert.Equal(t, "RETURN 1", Ping().Text)
	assert.Empty(t, Ping().Params)
}
