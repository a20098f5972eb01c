// Package importer turns schemas received from outside (database
// introspection, suggested schema files, shared links) into the id-only
// model. External input may reference tables and columns by id or by
// name; references are resolved here and nowhere else.
package importer

import (
	"encoding/json"

	"github.com/tordrt/schemadesigner/internal/schema"
)

// RawSchema is a schema as received. It accepts both nested columns
// (tables[].columns) and the generator document layout (columns keyed by
// table name).
type RawSchema struct {
	Name          string                 `json:"name,omitempty"`
	Tables        []RawTable             `json:"tables"`
	Columns       map[string][]RawColumn `json:"columns,omitempty"`
	Relationships []RawRelationship      `json:"relationships,omitempty"`
	Constraints   []RawConstraint        `json:"outcome_constraints,omitempty"`
}

// RawTable is a table as received
type RawTable struct {
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name"`
	RowCount int64            `json:"row_count,omitempty"`
	Columns  []RawColumn      `json:"columns,omitempty"`
	Position *schema.Position `json:"position,omitempty"`
}

// RawColumn is a column as received. Type may be one of the model's type
// tags or a SQL type name.
type RawColumn struct {
	ID                 string          `json:"id,omitempty"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	Params             json.RawMessage `json:"params,omitempty"`
	DistributionParams json.RawMessage `json:"distribution_params,omitempty"`
	References         string          `json:"references,omitempty"`
}

func (c RawColumn) params() json.RawMessage {
	if len(c.Params) > 0 {
		return c.Params
	}
	return c.DistributionParams
}

// RawRelationship is a foreign key as received. Endpoints are ids or
// names; the source/target keys win over the parent/child ones.
type RawRelationship struct {
	ID           string `json:"id,omitempty"`
	SourceTable  string `json:"source_table,omitempty"`
	SourceColumn string `json:"source_column,omitempty"`
	TargetTable  string `json:"target_table,omitempty"`
	TargetColumn string `json:"target_column,omitempty"`

	SourceTableID  string `json:"source_table_id,omitempty"`
	SourceColumnID string `json:"source_column_id,omitempty"`
	TargetTableID  string `json:"target_table_id,omitempty"`
	TargetColumnID string `json:"target_column_id,omitempty"`

	ParentTable string `json:"parent_table,omitempty"`
	ParentKey   string `json:"parent_key,omitempty"`
	ChildTable  string `json:"child_table,omitempty"`
	ChildKey    string `json:"child_key,omitempty"`
}

func (r RawRelationship) endpoints() (srcTable, srcColumn, dstTable, dstColumn string) {
	return first(r.SourceTableID, r.SourceTable, r.ParentTable),
		first(r.SourceColumnID, r.SourceColumn, r.ParentKey),
		first(r.TargetTableID, r.TargetTable, r.ChildTable),
		first(r.TargetColumnID, r.TargetColumn, r.ChildKey)
}

// RawConstraint is an outcome constraint as received
type RawConstraint struct {
	TableID             string              `json:"table_id,omitempty"`
	ColumnID            string              `json:"column_id,omitempty"`
	TableName           string              `json:"table_name,omitempty"`
	ColumnName          string              `json:"column_name,omitempty"`
	Points              []schema.CurvePoint `json:"curve_points"`
	TimeUnit            string              `json:"time_unit,omitempty"`
	AvgTransactionValue *float64            `json:"avg_transaction_value,omitempty"`
}

// fkParams accepts a foreign key target by id or by name
type fkParams struct {
	TargetTableID string `json:"target_table_id"`
	TargetTable   string `json:"target_table"`
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
