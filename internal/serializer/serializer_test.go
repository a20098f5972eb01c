package serializer

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadesigner/internal/schema"
)

func usersOrders() (schema.Workspace, schema.Table, schema.Table) {
	users := schema.NewTable("users", 100, schema.NewColumn("id", schema.TypeInteger))
	fk := schema.NewColumn("user_id", schema.TypeForeignKey)
	fk.Params = schema.ForeignKeyParams{TargetTableID: users.ID}
	orders := schema.NewTable("orders", 500, fk, schema.NewColumn("amount", schema.TypeFloat))
	rel := schema.NewRelationship(users.ID, users.Columns[0].ID, orders.ID, orders.Columns[0].ID)

	points := make([]schema.CurvePoint, 12)
	for i := range points {
		points[i] = schema.CurvePoint{Timestamp: time.Date(2026, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), Value: 100000}
	}
	ws := schema.Workspace{
		Name:          "Shop",
		Tables:        []schema.Table{users, orders},
		Relationships: []schema.Relationship{rel},
		Constraints: []schema.OutcomeConstraint{{
			TableID: orders.ID, ColumnID: orders.Columns[1].ID, Points: points, TimeUnit: schema.UnitMonth,
		}},
	}
	return ws, users, orders
}

func TestSerializeUsersOrders(t *testing.T) {
	ws, _, _ := usersOrders()
	doc := Serialize(ws)

	assert.Equal(t, "Shop", doc.Name)
	assert.Equal(t, []Table{{Name: "users", RowCount: 100}, {Name: "orders", RowCount: 500}}, doc.Tables)
	assert.Equal(t, []Relationship{{ParentTable: "users", ParentKey: "id", ChildTable: "orders", ChildKey: "user_id"}}, doc.Relationships)

	require.Len(t, doc.Columns["orders"], 2)
	assert.Equal(t, foreignKey{TargetTable: "users"}, doc.Columns["orders"][0].DistributionParams)
	assert.Equal(t, schema.IntegerParams{Min: 0, Max: 1000}, doc.Columns["users"][0].DistributionParams)

	require.Len(t, doc.OutcomeConstraints, 1)
	assert.Equal(t, "orders", doc.OutcomeConstraints[0].TableName)
	assert.Equal(t, "amount", doc.OutcomeConstraints[0].ColumnName)
	require.Len(t, doc.OutcomeCurves, 1)
	assert.Equal(t, "flat", doc.OutcomeCurves[0].PatternType)
	assert.Equal(t, 10.0, doc.OutcomeCurves[0].Points[0].RelativeValue)
}

func TestSerializeIsIdempotent(t *testing.T) {
	ws, _, _ := usersOrders()
	before := ws.Clone()
	assert.Equal(t, Serialize(ws), Serialize(ws))
	assert.Equal(t, before, ws, "input is not modified")
}

func TestSerializeLeaksNoIDs(t *testing.T) {
	ws, users, orders := usersOrders()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Serialize(ws), FormatJSON))

	for _, id := range []string{users.ID, orders.ID, users.Columns[0].ID, orders.Columns[0].ID, ws.Relationships[0].ID} {
		assert.NotContains(t, buf.String(), id)
	}
}

func TestSerializeOmitsBrokenEntries(t *testing.T) {
	ws, users, orders := usersOrders()
	ws.Relationships = append(ws.Relationships, schema.NewRelationship(users.ID, "gone", orders.ID, orders.Columns[0].ID))
	ws.Constraints = append(ws.Constraints,
		schema.OutcomeConstraint{TableID: "gone", ColumnID: "gone", Points: ws.Constraints[0].Points},
		// non-numeric column
		schema.OutcomeConstraint{TableID: orders.ID, ColumnID: orders.Columns[0].ID, Points: ws.Constraints[0].Points},
	)
	ws.Tables[1].Columns[0].Params = schema.ForeignKeyParams{TargetTableID: "gone"}

	doc := Serialize(ws)
	assert.Len(t, doc.Relationships, 1)
	assert.Len(t, doc.OutcomeConstraints, 1)
	assert.Len(t, doc.OutcomeCurves, 1)
	assert.Equal(t, foreignKey{}, doc.Columns["orders"][0].DistributionParams)
}

func TestSerializeEmpty(t *testing.T) {
	doc := Serialize(schema.Workspace{Name: "Untitled Schema"})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, FormatJSON))
	assert.JSONEq(t, `{
		"name": "Untitled Schema",
		"tables": [],
		"columns": {},
		"relationships": [],
		"outcome_constraints": [],
		"outcome_curves": []
	}`, buf.String())
}

func TestEncodeYAMLMatchesJSON(t *testing.T) {
	ws, _, _ := usersOrders()
	doc := Serialize(ws)

	var jsonBuf, yamlBuf bytes.Buffer
	require.NoError(t, Encode(&jsonBuf, doc, FormatJSON))
	require.NoError(t, Encode(&yamlBuf, doc, FormatYAML))

	var fromJSON, fromYAML map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))

	assert.Equal(t, fromJSON["name"], fromYAML["name"])
	assert.Len(t, fromYAML["tables"], 2)
	assert.Len(t, fromYAML["relationships"], 1)
	assert.Contains(t, yamlBuf.String(), "parent_table: users")
	assert.Contains(t, yamlBuf.String(), "target_table: users")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"toml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, Document{}, "toml"), ErrUnknownFormat)
}
