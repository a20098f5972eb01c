package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/validate"
)

// DefaultRowCount replaces a missing or non-positive row count
const DefaultRowCount = 1000

// ErrNoTables is returned when the input has no usable table
var ErrNoTables = errors.New("schema has no tables")

// Result is a normalized schema ready for store.ReplaceGraph
type Result struct {
	Name        string
	Graph       schema.Graph
	Constraints []schema.OutcomeConstraint
	// Skipped lists input entries that were dropped or repaired, one line each
	Skipped []string
}

type resolver struct {
	g *schema.Graph
}

// table resolves by id first, then by name ignoring case
func (r resolver) table(ref string) (*schema.Table, bool) {
	if t, ok := r.g.Table(ref); ok {
		return t, true
	}
	return r.g.TableByName(ref)
}

func (r resolver) column(tableRef, columnRef string) (*schema.Table, *schema.Column, bool) {
	t, ok := r.table(tableRef)
	if !ok {
		return nil, nil, false
	}
	if c, ok := t.Column(columnRef); ok {
		return t, c, true
	}
	if c, ok := t.ColumnByName(columnRef); ok {
		return t, c, true
	}
	return nil, nil, false
}

// Normalize resolves every reference of raw to ids. Entries that cannot be
// resolved are dropped and reported in Result.Skipped rather than failing
// the whole import.
func Normalize(raw RawSchema) (Result, error) {
	res := Result{Name: strings.TrimSpace(raw.Name)}
	g := &res.Graph
	skip := func(format string, args ...any) {
		res.Skipped = append(res.Skipped, fmt.Sprintf(format, args...))
	}

	seenTableIDs := make(map[string]bool)
	// foreign key targets are resolved once every table exists
	type pendingFK struct {
		tableID, columnID, ref string
	}
	var pending []pendingFK

	for _, rt := range raw.Tables {
		name := strings.TrimSpace(rt.Name)
		if name == "" {
			skip("table without a name")
			continue
		}
		if _, dup := g.TableByName(name); dup {
			skip("duplicate table %s", name)
			continue
		}
		t := schema.Table{ID: rt.ID, Name: name, RowCount: rt.RowCount}
		if t.ID == "" || seenTableIDs[t.ID] {
			t.ID = schema.NewID()
		}
		seenTableIDs[t.ID] = true

		switch {
		case t.RowCount <= 0:
			t.RowCount = DefaultRowCount
		case t.RowCount > validate.MaxRowCount:
			skip("row count of %s clamped from %d to %d", name, t.RowCount, validate.MaxRowCount)
			t.RowCount = validate.MaxRowCount
		}
		if rt.Position != nil {
			t.Position = *rt.Position
		} else {
			t.Position = gridPosition(len(g.Tables))
		}

		cols := append(append([]RawColumn(nil), rt.Columns...), raw.Columns[rt.Name]...)
		seenCols := make(map[string]bool, len(cols))
		for _, rc := range cols {
			col, ref, err := normalizeColumn(rc)
			if err != nil {
				skip("column %s.%s: %v", name, rc.Name, err)
				continue
			}
			if _, dup := t.ColumnByName(col.Name); dup {
				skip("duplicate column %s.%s", name, col.Name)
				continue
			}
			if col.ID == "" || seenCols[col.ID] {
				col.ID = schema.NewID()
			}
			seenCols[col.ID] = true
			t.Columns = append(t.Columns, col)
			if ref != "" {
				pending = append(pending, pendingFK{tableID: t.ID, columnID: col.ID, ref: ref})
			}
		}
		g.Tables = append(g.Tables, t)
	}
	if len(g.Tables) == 0 {
		return Result{}, ErrNoTables
	}

	r := resolver{g: g}
	for _, p := range pending {
		_, col, _ := g.Column(p.tableID, p.columnID)
		target, ok := r.table(p.ref)
		if !ok {
			skip("foreign key %s targets unknown table %s", col.Name, p.ref)
			continue
		}
		col.Params = schema.ForeignKeyParams{TargetTableID: target.ID}
	}

	seenRels := make(map[string]bool)
	for _, rr := range raw.Relationships {
		st, sc, tt, tc := rr.endpoints()
		src, srcCol, ok := r.column(st, sc)
		if !ok {
			skip("relationship %s.%s -> %s.%s: unknown source", st, sc, tt, tc)
			continue
		}
		dst, dstCol, ok := r.column(tt, tc)
		if !ok {
			skip("relationship %s.%s -> %s.%s: unknown target", st, sc, tt, tc)
			continue
		}
		id := rr.ID
		if id == "" || seenRels[id] {
			id = schema.NewID()
		}
		seenRels[id] = true
		g.Relationships = append(g.Relationships, schema.Relationship{
			ID:             id,
			SourceTableID:  src.ID,
			SourceColumnID: srcCol.ID,
			TargetTableID:  dst.ID,
			TargetColumnID: dstCol.ID,
		})
		// a foreign key column without a target points at the parent table
		if _, set := dstCol.ForeignKeyTarget(); dstCol.Type == schema.TypeForeignKey && !set {
			dstCol.Params = schema.ForeignKeyParams{TargetTableID: src.ID}
		}
	}

	seenConstraints := make(map[[2]string]bool)
	for _, rc := range raw.Constraints {
		tableRef, columnRef := first(rc.TableID, rc.TableName), first(rc.ColumnID, rc.ColumnName)
		t, col, ok := r.column(tableRef, columnRef)
		if !ok {
			skip("outcome constraint on unknown column %s.%s", tableRef, columnRef)
			continue
		}
		if !col.Type.IsNumeric() {
			skip("outcome constraint on non-numeric column %s.%s", t.Name, col.Name)
			continue
		}
		key := [2]string{t.ID, col.ID}
		if seenConstraints[key] {
			skip("duplicate outcome constraint on %s.%s", t.Name, col.Name)
			continue
		}
		c, err := normalizeConstraint(rc)
		if err != nil {
			skip("outcome constraint on %s.%s: %v", t.Name, col.Name, err)
			continue
		}
		seenConstraints[key] = true
		c.TableID, c.ColumnID = t.ID, col.ID
		res.Constraints = append(res.Constraints, c)
	}

	return res, nil
}

// normalizeColumn returns the column and, for foreign keys, the unresolved
// target reference
func normalizeColumn(rc RawColumn) (schema.Column, string, error) {
	name := strings.TrimSpace(rc.Name)
	if name == "" {
		return schema.Column{}, "", errors.New("missing name")
	}
	typ := schema.ColumnType(strings.ToLower(strings.TrimSpace(rc.Type)))
	if !typ.Valid() {
		typ = MapSQLType(rc.Type)
	}
	if rc.References != "" {
		typ = schema.TypeForeignKey
	}
	col := schema.Column{ID: rc.ID, Name: name, Type: typ}

	raw := rc.params()
	if typ == schema.TypeForeignKey {
		col.Params = schema.ForeignKeyParams{}
		ref := rc.References
		if ref == "" && len(raw) > 0 {
			var fk fkParams
			if err := json.Unmarshal(raw, &fk); err != nil {
				return schema.Column{}, "", fmt.Errorf("invalid foreign key params: %w", err)
			}
			ref = first(fk.TargetTableID, fk.TargetTable)
		}
		return col, ref, nil
	}

	params, err := schema.DecodeParams(typ, raw)
	if err != nil {
		// keep the column, fall back to defaults
		params = schema.DefaultParams(typ)
	}
	col.Params = params
	return col, "", nil
}

func normalizeConstraint(rc RawConstraint) (schema.OutcomeConstraint, error) {
	c := schema.OutcomeConstraint{
		Points:   append([]schema.CurvePoint(nil), rc.Points...),
		TimeUnit: schema.TimeUnit(strings.ToLower(rc.TimeUnit)),
	}
	if c.TimeUnit == "" {
		c.TimeUnit = schema.UnitMonth
	}
	if !c.TimeUnit.Valid() {
		return c, fmt.Errorf("invalid time unit %q", rc.TimeUnit)
	}
	if len(c.Points) == 0 {
		return c, errors.New("no curve points")
	}
	for i := 1; i < len(c.Points); i++ {
		if !c.Points[i].Timestamp.After(c.Points[i-1].Timestamp) {
			return c, errors.New("curve timestamps are not increasing")
		}
	}
	if rc.AvgTransactionValue != nil {
		v := *rc.AvgTransactionValue
		c.AvgTransactionValue = &v
	}
	return c, nil
}

func gridPosition(i int) schema.Position {
	return schema.Position{X: float64(100 + (i%4)*300), Y: float64(100 + (i/4)*250)}
}
