package store

import (
	"fmt"
	"log/slog"

	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/validate"
)

// ColumnUpdate lists the column fields to change. A nil field is left
// untouched. The column type follows the parameter variant.
type ColumnUpdate struct {
	Name   *string
	Params schema.Params
}

// AddTable adds a table. Only id uniqueness is enforced here; name rules
// belong to the caller. Missing ids and parameters are filled in.
func (s *Store) AddTable(t schema.Table) (schema.Table, error) {
	t = t.Clone()
	if t.ID == "" {
		t.ID = schema.NewID()
	}
	err := s.apply("add_table", true, func(st *state) error {
		if _, exists := st.graph.Table(t.ID); exists {
			return fmt.Errorf("%w: %s", ErrTableExists, t.ID)
		}
		seen := make(map[string]bool, len(t.Columns))
		for i := range t.Columns {
			if err := normalizeColumn(&t.Columns[i]); err != nil {
				return err
			}
			if seen[t.Columns[i].ID] {
				return fmt.Errorf("%w: %s", ErrColumnExists, t.Columns[i].ID)
			}
			seen[t.Columns[i].ID] = true
			if err := checkForeignKey(&st.graph, t.ID, t.Columns[i]); err != nil {
				return err
			}
		}
		st.graph.Tables = append(st.graph.Tables, t)
		return nil
	})
	if err != nil {
		return schema.Table{}, err
	}
	return t, nil
}

// RemoveTable removes a table together with every relationship touching it,
// every constraint on its columns, and the target of every foreign key
// column pointing at it, in one update.
func (s *Store) RemoveTable(id string) error {
	return s.apply("remove_table", true, func(st *state) error {
		idx := tableIndex(&st.graph, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrTableNotFound, id)
		}
		st.graph.Tables = append(st.graph.Tables[:idx], st.graph.Tables[idx+1:]...)

		st.graph.Relationships = filter(st.graph.Relationships, func(r schema.Relationship) bool {
			return !r.References(id)
		})
		st.constraints = filter(st.constraints, func(c schema.OutcomeConstraint) bool {
			return c.TableID != id
		})
		for ti := range st.graph.Tables {
			cols := st.graph.Tables[ti].Columns
			for ci := range cols {
				if target, ok := cols[ci].ForeignKeyTarget(); ok && target == id {
					cols[ci].Params = schema.ForeignKeyParams{}
				}
			}
		}
		return nil
	})
}

// AddColumn appends a column to a table
func (s *Store) AddColumn(tableID string, col schema.Column) (schema.Column, error) {
	col = col.Clone()
	if col.ID == "" {
		col.ID = schema.NewID()
	}
	err := s.apply("add_column", true, func(st *state) error {
		t, ok := st.graph.Table(tableID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
		}
		if err := normalizeColumn(&col); err != nil {
			return err
		}
		if _, exists := t.Column(col.ID); exists {
			return fmt.Errorf("%w: %s", ErrColumnExists, col.ID)
		}
		if err := checkForeignKey(&st.graph, tableID, col); err != nil {
			return err
		}
		t.Columns = append(t.Columns, col)
		return nil
	})
	if err != nil {
		return schema.Column{}, err
	}
	return col, nil
}

// RemoveColumn removes a column together with the relationships using it
// and its constraint, in one update
func (s *Store) RemoveColumn(tableID, columnID string) error {
	return s.apply("remove_column", true, func(st *state) error {
		t, ok := st.graph.Table(tableID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
		}
		idx := -1
		for i := range t.Columns {
			if t.Columns[i].ID == columnID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, tableID, columnID)
		}
		t.Columns = append(t.Columns[:idx], t.Columns[idx+1:]...)

		st.graph.Relationships = filter(st.graph.Relationships, func(r schema.Relationship) bool {
			return !r.ReferencesColumn(tableID, columnID)
		})
		st.constraints = filter(st.constraints, func(c schema.OutcomeConstraint) bool {
			return c.TableID != tableID || c.ColumnID != columnID
		})
		return nil
	})
}

// RenameTable changes a table's display name. Cosmetic: not undoable, and
// every reference keeps pointing at the table id.
func (s *Store) RenameTable(id, name string) error {
	return s.apply("rename_table", false, func(st *state) error {
		t, ok := st.graph.Table(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTableNotFound, id)
		}
		t.Name = name
		return nil
	})
}

// MoveTable changes a table's canvas position. Cosmetic.
func (s *Store) MoveTable(id string, pos schema.Position) error {
	return s.apply("move_table", false, func(st *state) error {
		t, ok := st.graph.Table(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTableNotFound, id)
		}
		t.Position = pos
		return nil
	})
}

// UpdateRowCount validates and sets a table's target row count. A failing
// rule leaves the model untouched and returns a *ValidationError; warnings
// are returned with a nil error.
func (s *Store) UpdateRowCount(id string, n int64) (validate.Result, error) {
	res := validate.RowCount(n)
	if !res.Valid {
		return res, &ValidationError{Field: "row_count", Result: res}
	}
	err := s.apply("update_row_count", false, func(st *state) error {
		t, ok := st.graph.Table(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrTableNotFound, id)
		}
		t.RowCount = n
		return nil
	})
	return res, err
}

// UpdateColumn changes a column in place. Cosmetic: not undoable. When the
// new parameters make the column non-numeric, its outcome constraint is
// pruned in the same update.
func (s *Store) UpdateColumn(tableID, columnID string, upd ColumnUpdate) error {
	return s.apply("update_column", false, func(st *state) error {
		_, col, ok := st.graph.Column(tableID, columnID)
		if !ok {
			if _, tok := st.graph.Table(tableID); !tok {
				return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
			}
			return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, tableID, columnID)
		}
		if upd.Name != nil {
			col.Name = *upd.Name
		}
		if upd.Params != nil {
			next := col.Clone()
			next.Type = upd.Params.Type()
			next.Params = upd.Params
			if err := checkForeignKey(&st.graph, tableID, next); err != nil {
				return err
			}
			*col = next.Clone()
		}
		if !col.Type.IsNumeric() {
			before := len(st.constraints)
			st.constraints = filter(st.constraints, func(c schema.OutcomeConstraint) bool {
				return c.TableID != tableID || c.ColumnID != columnID
			})
			if len(st.constraints) != before {
				s.logger.Warn("pruned outcome constraint of column that is no longer numeric",
					slog.String("table_id", tableID), slog.String("column_id", columnID),
					slog.String("type", string(col.Type)))
			}
		}
		return nil
	})
}

// AddRelationship adds a foreign-key edge. Both endpoints must exist; type
// compatibility is not checked.
func (s *Store) AddRelationship(rel schema.Relationship) (schema.Relationship, error) {
	if rel.ID == "" {
		rel.ID = schema.NewID()
	}
	err := s.apply("add_relationship", true, func(st *state) error {
		if _, exists := st.graph.Relationship(rel.ID); exists {
			return fmt.Errorf("%w: %s", ErrRelationshipExists, rel.ID)
		}
		if !resolves(&st.graph, rel) {
			return fmt.Errorf("%w: %s.%s -> %s.%s", ErrEndpointNotFound,
				rel.SourceTableID, rel.SourceColumnID, rel.TargetTableID, rel.TargetColumnID)
		}
		st.graph.Relationships = append(st.graph.Relationships, rel)
		return nil
	})
	if err != nil {
		return schema.Relationship{}, err
	}
	return rel, nil
}

// RemoveRelationship removes a foreign-key edge
func (s *Store) RemoveRelationship(id string) error {
	return s.apply("remove_relationship", true, func(st *state) error {
		before := len(st.graph.Relationships)
		st.graph.Relationships = filter(st.graph.Relationships, func(r schema.Relationship) bool {
			return r.ID != id
		})
		if len(st.graph.Relationships) == before {
			return fmt.Errorf("%w: %s", ErrRelationshipNotFound, id)
		}
		return nil
	})
}

// ReplaceGraph swaps in a whole graph, as done by imports. Structural and
// undoable. Entries that do not resolve inside g are dropped, as are
// constraints whose column is gone.
func (s *Store) ReplaceGraph(g schema.Graph) error {
	g = g.Clone()
	return s.apply("replace_graph", true, func(st *state) error {
		for ti := range g.Tables {
			for ci := range g.Tables[ti].Columns {
				if err := normalizeColumn(&g.Tables[ti].Columns[ci]); err != nil {
					return err
				}
			}
		}
		st.graph = g
		sanitize(st, s.logger)
		return nil
	})
}

// Import replaces the graph, the display name and every outcome constraint
// in one commit, so persistence and subscribers observe the imported
// workspace whole. The graph part is structural and undoable. An empty name
// keeps the current one. Constraints with an invalid curve, or whose column
// is missing or not numeric in g, are dropped and logged; a later
// constraint on the same column replaces an earlier one.
func (s *Store) Import(name string, g schema.Graph, constraints []schema.OutcomeConstraint) error {
	g = g.Clone()
	constraints = schema.CloneConstraints(constraints)
	return s.apply("import", true, func(st *state) error {
		for ti := range g.Tables {
			for ci := range g.Tables[ti].Columns {
				if err := normalizeColumn(&g.Tables[ti].Columns[ci]); err != nil {
					return err
				}
			}
		}
		st.graph = g
		if name != "" {
			st.name = name
		}

		st.constraints = nil
		for i := range constraints {
			c := constraints[i]
			if err := checkCurve(&c); err != nil {
				s.logger.Warn("dropped imported outcome constraint",
					slog.String("table_id", c.TableID),
					slog.String("column_id", c.ColumnID),
					slog.Any("error", err),
				)
				continue
			}
			st.constraints = filter(st.constraints, func(o schema.OutcomeConstraint) bool {
				return o.TableID != c.TableID || o.ColumnID != c.ColumnID
			})
			st.constraints = append(st.constraints, c)
		}
		sanitize(st, s.logger)
		return nil
	})
}

func normalizeColumn(col *schema.Column) error {
	if col.ID == "" {
		col.ID = schema.NewID()
	}
	if col.Params == nil {
		col.Params = schema.DefaultParams(col.Type)
	}
	if col.Type == "" && col.Params != nil {
		col.Type = col.Params.Type()
	}
	if !col.Type.Valid() {
		return fmt.Errorf("%w: %q", schema.ErrUnknownColumnType, col.Type)
	}
	if col.Params.Type() != col.Type {
		return fmt.Errorf("%w: %s has %s params", ErrParamsMismatch, col.Type, col.Params.Type())
	}
	return nil
}

// checkForeignKey requires a chosen foreign key target to be an existing
// table or the column's own table
func checkForeignKey(g *schema.Graph, ownTableID string, col schema.Column) error {
	target, ok := col.ForeignKeyTarget()
	if !ok || target == ownTableID {
		return nil
	}
	if _, exists := g.Table(target); !exists {
		return fmt.Errorf("%w: foreign key %s targets %s", ErrTableNotFound, col.Name, target)
	}
	return nil
}

func resolves(g *schema.Graph, r schema.Relationship) bool {
	_, _, src := g.Column(r.SourceTableID, r.SourceColumnID)
	_, _, dst := g.Column(r.TargetTableID, r.TargetColumnID)
	return src && dst
}

// sanitize drops everything that no longer resolves: relationships with a
// missing endpoint, foreign key targets naming a missing table, and
// constraints whose column is missing or not numeric
func sanitize(st *state, logger *slog.Logger) {
	g := &st.graph
	before := len(g.Relationships)
	g.Relationships = filter(g.Relationships, func(r schema.Relationship) bool {
		return resolves(g, r)
	})
	for ti := range g.Tables {
		for ci := range g.Tables[ti].Columns {
			col := &g.Tables[ti].Columns[ci]
			if target, ok := col.ForeignKeyTarget(); ok {
				if _, exists := g.Table(target); !exists {
					col.Params = schema.ForeignKeyParams{}
				}
			}
		}
	}
	constraintsBefore := len(st.constraints)
	st.constraints = filter(st.constraints, func(c schema.OutcomeConstraint) bool {
		_, col, ok := g.Column(c.TableID, c.ColumnID)
		return ok && col.Type.IsNumeric()
	})
	if dropped := before - len(g.Relationships); dropped > 0 {
		logger.Warn("dropped unresolved relationships", slog.Int("count", dropped))
	}
	if dropped := constraintsBefore - len(st.constraints); dropped > 0 {
		logger.Info("dropped outcome constraints of missing columns", slog.Int("count", dropped))
	}
}

func tableIndex(g *schema.Graph, id string) int {
	for i := range g.Tables {
		if g.Tables[i].ID == id {
			return i
		}
	}
	return -1
}

func filter[T any](in []T, keep func(T) bool) []T {
	if in == nil {
		return nil
	}
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
