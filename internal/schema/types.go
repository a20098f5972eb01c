package schema

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ColumnType is the closed set of column type tags
type ColumnType string

const (
	TypeInteger     ColumnType = "integer"
	TypeFloat       ColumnType = "float"
	TypeText        ColumnType = "text"
	TypeDate        ColumnType = "date"
	TypeTime        ColumnType = "time"
	TypeDatetime    ColumnType = "datetime"
	TypeCategorical ColumnType = "categorical"
	TypeBoolean     ColumnType = "boolean"
	TypeForeignKey  ColumnType = "foreign_key"
)

// ColumnTypes lists every supported type tag in display order
var ColumnTypes = []ColumnType{
	TypeInteger, TypeFloat, TypeText, TypeDate, TypeTime,
	TypeDatetime, TypeCategorical, TypeBoolean, TypeForeignKey,
}

// Valid reports whether t is one of the known type tags
func (t ColumnType) Valid() bool {
	for _, known := range ColumnTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsNumeric reports whether values of this type can carry an outcome curve
func (t ColumnType) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// TimeUnit is the bucket size of an outcome curve
type TimeUnit string

const (
	UnitDay     TimeUnit = "day"
	UnitWeek    TimeUnit = "week"
	UnitMonth   TimeUnit = "month"
	UnitQuarter TimeUnit = "quarter"
	UnitYear    TimeUnit = "year"
)

// Valid reports whether u is a known time unit
func (u TimeUnit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitQuarter, UnitYear:
		return true
	}
	return false
}

// Position is the canvas location of a table node. It carries no meaning
// outside the view.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Table represents a table on the canvas
type Table struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	RowCount int64    `json:"row_count"`
	Columns  []Column `json:"columns"`
	Position Position `json:"position"`
}

// Column represents a typed field of a table. Params always holds the
// variant matching Type.
type Column struct {
	ID     string
	Name   string
	Type   ColumnType
	Params Params
}

// Relationship is a directed foreign-key edge. The source side is the
// parent (referenced) column, the target side the child (referencing) one.
type Relationship struct {
	ID             string `json:"id"`
	SourceTableID  string `json:"source_table_id"`
	SourceColumnID string `json:"source_column_id"`
	TargetTableID  string `json:"target_table_id"`
	TargetColumnID string `json:"target_column_id"`
}

// CurvePoint is one sample of a target curve
type CurvePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// OutcomeConstraint attaches a target curve to one numeric column
type OutcomeConstraint struct {
	TableID             string       `json:"table_id"`
	ColumnID            string       `json:"column_id"`
	Points              []CurvePoint `json:"curve_points"`
	TimeUnit            TimeUnit     `json:"time_unit"`
	AvgTransactionValue *float64     `json:"avg_transaction_value,omitempty"`
}

// Graph is the undoable part of the model
type Graph struct {
	Tables        []Table        `json:"tables"`
	Relationships []Relationship `json:"relationships"`
}

// Workspace is everything that survives a session: display name, graph
// and constraints.
type Workspace struct {
	Name          string              `json:"name"`
	Tables        []Table             `json:"tables"`
	Relationships []Relationship      `json:"relationships"`
	Constraints   []OutcomeConstraint `json:"outcome_constraints"`
}

// Graph returns the undoable slice of the workspace
func (w Workspace) Graph() Graph {
	return Graph{Tables: w.Tables, Relationships: w.Relationships}
}

// NewID returns a fresh entity identifier
func NewID() string {
	return uuid.NewString()
}

// NewTable creates a table with a fresh id
func NewTable(name string, rowCount int64, columns ...Column) Table {
	return Table{
		ID:       NewID(),
		Name:     name,
		RowCount: rowCount,
		Columns:  columns,
	}
}

// NewColumn creates a column with a fresh id and the default parameters for typ
func NewColumn(name string, typ ColumnType) Column {
	return Column{
		ID:     NewID(),
		Name:   name,
		Type:   typ,
		Params: DefaultParams(typ),
	}
}

// NewRelationship creates a relationship with a fresh id
func NewRelationship(sourceTableID, sourceColumnID, targetTableID, targetColumnID string) Relationship {
	return Relationship{
		ID:             NewID(),
		SourceTableID:  sourceTableID,
		SourceColumnID: sourceColumnID,
		TargetTableID:  targetTableID,
		TargetColumnID: targetColumnID,
	}
}

// Table returns the table with the given id
func (g *Graph) Table(id string) (*Table, bool) {
	for i := range g.Tables {
		if g.Tables[i].ID == id {
			return &g.Tables[i], true
		}
	}
	return nil, false
}

// TableByName looks a table up by name, ignoring case
func (g *Graph) TableByName(name string) (*Table, bool) {
	for i := range g.Tables {
		if strings.EqualFold(g.Tables[i].Name, name) {
			return &g.Tables[i], true
		}
	}
	return nil, false
}

// Column returns the column addressed by table and column id
func (g *Graph) Column(tableID, columnID string) (*Table, *Column, bool) {
	t, ok := g.Table(tableID)
	if !ok {
		return nil, nil, false
	}
	c, ok := t.Column(columnID)
	if !ok {
		return nil, nil, false
	}
	return t, c, true
}

// Relationship returns the relationship with the given id
func (g *Graph) Relationship(id string) (*Relationship, bool) {
	for i := range g.Relationships {
		if g.Relationships[i].ID == id {
			return &g.Relationships[i], true
		}
	}
	return nil, false
}

// TableNames returns the names of all tables, optionally skipping one id
func (g *Graph) TableNames(exceptID string) []string {
	names := make([]string, 0, len(g.Tables))
	for _, t := range g.Tables {
		if t.ID != exceptID {
			names = append(names, t.Name)
		}
	}
	return names
}

// Column returns the column with the given id
func (t *Table) Column(id string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].ID == id {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnByName looks a column up by name, ignoring case
func (t *Table) ColumnByName(name string) (*Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the names of the table's columns, optionally skipping one id
func (t *Table) ColumnNames(exceptID string) []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.ID != exceptID {
			names = append(names, c.Name)
		}
	}
	return names
}

// References reports whether the relationship touches the given table
func (r Relationship) References(tableID string) bool {
	return r.SourceTableID == tableID || r.TargetTableID == tableID
}

// ReferencesColumn reports whether the relationship uses the given column
func (r Relationship) ReferencesColumn(tableID, columnID string) bool {
	return (r.SourceTableID == tableID && r.SourceColumnID == columnID) ||
		(r.TargetTableID == tableID && r.TargetColumnID == columnID)
}
