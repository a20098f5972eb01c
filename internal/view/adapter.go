package view

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tordrt/schemadesigner/internal/curve"
	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/store"
)

// DefaultRowCount is the row count of a table added from the canvas
const DefaultRowCount = 1000

var (
	// ErrUnknownGesture is returned by Dispatch for an unrecognised gesture type.
	ErrUnknownGesture = errors.New("unknown gesture")
	// ErrMissingField is returned by Dispatch when a gesture lacks a required field.
	ErrMissingField = errors.New("gesture is missing a required field")
)

// GestureType tags a canvas gesture
type GestureType string

const (
	GestureAddTable           GestureType = "add_table"
	GestureAddColumn          GestureType = "add_column"
	GestureConnect            GestureType = "connect"
	GestureMoveTable          GestureType = "move_table"
	GestureDeleteTable        GestureType = "delete_table"
	GestureDeleteColumn       GestureType = "delete_column"
	GestureDeleteRelationship GestureType = "delete_relationship"
	GestureEditConstraint     GestureType = "edit_constraint"
)

// Gesture is a user action emitted by the canvas. Which fields are read
// depends on Type.
type Gesture struct {
	Type           GestureType      `json:"type"`
	TableID        string           `json:"table_id,omitempty"`
	ColumnID       string           `json:"column_id,omitempty"`
	RelationshipID string           `json:"relationship_id,omitempty"`
	SourceTableID  string           `json:"source_table_id,omitempty"`
	SourceColumnID string           `json:"source_column_id,omitempty"`
	TargetTableID  string           `json:"target_table_id,omitempty"`
	TargetColumnID string           `json:"target_column_id,omitempty"`
	Position       *schema.Position `json:"position,omitempty"`
}

// Result carries whatever a gesture created or opened
type Result struct {
	Table        *schema.Table        `json:"table,omitempty"`
	Column       *schema.Column       `json:"column,omitempty"`
	Relationship *schema.Relationship `json:"relationship,omitempty"`
	Draft        *curve.Draft         `json:"draft,omitempty"`
}

// Adapter routes canvas gestures to the store and the curve engine
type Adapter struct {
	store  *store.Store
	engine *curve.Engine
	logger *slog.Logger
}

// NewAdapter creates an adapter. A nil logger means slog.Default().
func NewAdapter(s *store.Store, e *curve.Engine, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: s, engine: e, logger: logger}
}

// View projects the current workspace
func (a *Adapter) View() View {
	return Project(a.store.Snapshot())
}

// AddTable adds a table named table_N with an integer id column
func (a *Adapter) AddTable() (schema.Table, error) {
	g := a.store.Graph()
	name := uniqueName("table", g.TableNames(""))
	t := schema.NewTable(name, DefaultRowCount, schema.NewColumn("id", schema.TypeInteger))
	t.Position = nextPosition(len(g.Tables))
	return a.store.AddTable(t)
}

// AddColumn appends a text column named column_N to a table
func (a *Adapter) AddColumn(tableID string) (schema.Column, error) {
	g := a.store.Graph()
	t, ok := g.Table(tableID)
	if !ok {
		return schema.Column{}, fmt.Errorf("%w: %s", store.ErrTableNotFound, tableID)
	}
	return a.store.AddColumn(tableID, schema.NewColumn(uniqueName("column", t.ColumnNames("")), schema.TypeText))
}

// Connect adds a relationship between two columns
func (a *Adapter) Connect(sourceTableID, sourceColumnID, targetTableID, targetColumnID string) (schema.Relationship, error) {
	return a.store.AddRelationship(schema.NewRelationship(sourceTableID, sourceColumnID, targetTableID, targetColumnID))
}

// MoveTable records a drag
func (a *Adapter) MoveTable(id string, pos schema.Position) error {
	return a.store.MoveTable(id, pos)
}

// DeleteTable removes a table and its dependents
func (a *Adapter) DeleteTable(id string) error {
	return a.store.RemoveTable(id)
}

// DeleteColumn removes a column and its dependents
func (a *Adapter) DeleteColumn(tableID, columnID string) error {
	return a.store.RemoveColumn(tableID, columnID)
}

// DeleteRelationship removes an edge
func (a *Adapter) DeleteRelationship(id string) error {
	return a.store.RemoveRelationship(id)
}

// EditConstraint opens a curve draft for a numeric column
func (a *Adapter) EditConstraint(tableID, columnID string) (*curve.Draft, error) {
	return a.engine.Begin(tableID, columnID)
}

// Dispatch applies one gesture
func (a *Adapter) Dispatch(g Gesture) (Result, error) {
	if err := g.check(); err != nil {
		return Result{}, err
	}
	a.logger.Debug("gesture", slog.String("type", string(g.Type)))

	switch g.Type {
	case GestureAddTable:
		t, err := a.AddTable()
		if err != nil {
			return Result{}, err
		}
		return Result{Table: &t}, nil
	case GestureAddColumn:
		c, err := a.AddColumn(g.TableID)
		if err != nil {
			return Result{}, err
		}
		return Result{Column: &c}, nil
	case GestureConnect:
		r, err := a.Connect(g.SourceTableID, g.SourceColumnID, g.TargetTableID, g.TargetColumnID)
		if err != nil {
			return Result{}, err
		}
		return Result{Relationship: &r}, nil
	case GestureMoveTable:
		return Result{}, a.MoveTable(g.TableID, *g.Position)
	case GestureDeleteTable:
		return Result{}, a.DeleteTable(g.TableID)
	case GestureDeleteColumn:
		return Result{}, a.DeleteColumn(g.TableID, g.ColumnID)
	case GestureDeleteRelationship:
		return Result{}, a.DeleteRelationship(g.RelationshipID)
	case GestureEditConstraint:
		d, err := a.EditConstraint(g.TableID, g.ColumnID)
		if err != nil {
			return Result{}, err
		}
		return Result{Draft: d}, nil
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownGesture, g.Type)
}

func (g Gesture) check() error {
	var missing []string
	need := func(field, value string) {
		if value == "" {
			missing = append(missing, field)
		}
	}
	switch g.Type {
	case GestureAddTable:
	case GestureAddColumn, GestureDeleteTable:
		need("table_id", g.TableID)
	case GestureMoveTable:
		need("table_id", g.TableID)
		if g.Position == nil {
			missing = append(missing, "position")
		}
	case GestureDeleteColumn, GestureEditConstraint:
		need("table_id", g.TableID)
		need("column_id", g.ColumnID)
	case GestureConnect:
		need("source_table_id", g.SourceTableID)
		need("source_column_id", g.SourceColumnID)
		need("target_table_id", g.TargetTableID)
		need("target_column_id", g.TargetColumnID)
	case GestureDeleteRelationship:
		need("relationship_id", g.RelationshipID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGesture, g.Type)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// uniqueName returns prefix_N for the smallest N >= len(existing)+1 not
// already taken, ignoring case
func uniqueName(prefix string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[strings.ToLower(n)] = true
	}
	for n := len(existing) + 1; ; n++ {
		name := prefix + "_" + strconv.Itoa(n)
		if !taken[name] {
			return name
		}
	}
}

// nextPosition staggers new nodes on a four-column grid
func nextPosition(i int) schema.Position {
	return schema.Position{X: float64(100 + (i%4)*300), Y: float64(100 + (i/4)*250)}
}
