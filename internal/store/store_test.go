package store

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadesigner/internal/schema"
)

type fixture struct {
	store  *Store
	users  schema.Table
	orders schema.Table
	rel    schema.Relationship
}

// newUsersOrders builds users(id) <- orders(user_id, amount) with one relationship
func newUsersOrders(t *testing.T, opts ...Option) fixture {
	t.Helper()
	s := New(opts...)

	users, err := s.AddTable(schema.NewTable("users", 100, schema.NewColumn("id", schema.TypeInteger)))
	require.NoError(t, err)

	fk := schema.NewColumn("user_id", schema.TypeForeignKey)
	fk.Params = schema.ForeignKeyParams{TargetTableID: users.ID}
	orders, err := s.AddTable(schema.NewTable("orders", 500, fk, schema.NewColumn("amount", schema.TypeFloat)))
	require.NoError(t, err)

	rel, err := s.AddRelationship(schema.NewRelationship(users.ID, users.Columns[0].ID, orders.ID, orders.Columns[0].ID))
	require.NoError(t, err)

	return fixture{store: s, users: users, orders: orders, rel: rel}
}

func monthlyPoints(values ...float64) []schema.CurvePoint {
	points := make([]schema.CurvePoint, len(values))
	for i, v := range values {
		points[i] = schema.CurvePoint{Timestamp: time.Date(2026, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), Value: v}
	}
	return points
}

// assertConsistent checks that nothing references a missing table or column
func assertConsistent(t *testing.T, ws schema.Workspace) {
	t.Helper()
	g := ws.Graph()
	for _, r := range g.Relationships {
		_, _, src := g.Column(r.SourceTableID, r.SourceColumnID)
		_, _, dst := g.Column(r.TargetTableID, r.TargetColumnID)
		assert.True(t, src && dst, "dangling relationship %s", r.ID)
	}
	for _, c := range ws.Constraints {
		_, col, ok := g.Column(c.TableID, c.ColumnID)
		if assert.True(t, ok, "dangling constraint %s.%s", c.TableID, c.ColumnID) {
			assert.True(t, col.Type.IsNumeric())
		}
	}
	for _, tbl := range g.Tables {
		for _, col := range tbl.Columns {
			if target, ok := col.ForeignKeyTarget(); ok {
				_, exists := g.Table(target)
				assert.True(t, exists, "dangling foreign key %s.%s", tbl.Name, col.Name)
			}
		}
	}
}

func TestAddTableRejectsDuplicateID(t *testing.T) {
	s := New()
	tbl := schema.NewTable("users", 10)
	_, err := s.AddTable(tbl)
	require.NoError(t, err)

	_, err = s.AddTable(schema.Table{ID: tbl.ID, Name: "other", RowCount: 1})
	assert.ErrorIs(t, err, ErrTableExists)
	assert.Len(t, s.Snapshot().Tables, 1)
}

func TestAddTableAllowsDuplicateNames(t *testing.T) {
	s := New()
	_, err := s.AddTable(schema.NewTable("users", 10))
	require.NoError(t, err)
	_, err = s.AddTable(schema.NewTable("USERS", 10))
	require.NoError(t, err)
	assert.Len(t, s.Snapshot().Tables, 2)
}

func TestAddTableFillsDefaults(t *testing.T) {
	s := New()
	tbl, err := s.AddTable(schema.Table{Name: "events", RowCount: 10, Columns: []schema.Column{{Name: "at", Type: schema.TypeDate}}})
	require.NoError(t, err)
	assert.NotEmpty(t, tbl.ID)
	assert.NotEmpty(t, tbl.Columns[0].ID)
	assert.Equal(t, schema.DefaultParams(schema.TypeDate), tbl.Columns[0].Params)
}

func TestAddColumnRejectsMismatchedParams(t *testing.T) {
	s := New()
	tbl, err := s.AddTable(schema.NewTable("users", 10))
	require.NoError(t, err)

	_, err = s.AddColumn(tbl.ID, schema.Column{Name: "age", Type: schema.TypeInteger, Params: schema.TextParams{}})
	assert.ErrorIs(t, err, ErrParamsMismatch)

	_, err = s.AddColumn("missing", schema.NewColumn("age", schema.TypeInteger))
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestForeignKeyMustTargetExistingTable(t *testing.T) {
	s := New()
	tbl, err := s.AddTable(schema.NewTable("orders", 10))
	require.NoError(t, err)

	col := schema.NewColumn("user_id", schema.TypeForeignKey)
	col.Params = schema.ForeignKeyParams{TargetTableID: "nope"}
	_, err = s.AddColumn(tbl.ID, col)
	assert.ErrorIs(t, err, ErrTableNotFound)

	col.Params = schema.ForeignKeyParams{TargetTableID: tbl.ID}
	_, err = s.AddColumn(tbl.ID, col)
	assert.NoError(t, err, "self reference is allowed")
}

func TestAddRelationshipRequiresEndpoints(t *testing.T) {
	f := newUsersOrders(t)
	_, err := f.store.AddRelationship(schema.NewRelationship(f.users.ID, "missing", f.orders.ID, f.orders.Columns[0].ID))
	assert.ErrorIs(t, err, ErrEndpointNotFound)

	// types are not checked: float -> integer is accepted
	_, err = f.store.AddRelationship(schema.NewRelationship(f.orders.ID, f.orders.Columns[1].ID, f.users.ID, f.users.Columns[0].ID))
	assert.NoError(t, err)

	_, err = f.store.AddRelationship(f.rel)
	assert.ErrorIs(t, err, ErrRelationshipExists)
}

func TestRemoveTableCascades(t *testing.T) {
	f := newUsersOrders(t)
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{
		TableID: f.orders.ID, ColumnID: f.orders.Columns[1].ID, Points: monthlyPoints(1, 2, 3),
	}))

	require.NoError(t, f.store.RemoveTable(f.users.ID))
	ws := f.store.Snapshot()
	assertConsistent(t, ws)
	require.Len(t, ws.Tables, 1)
	assert.Equal(t, "orders", ws.Tables[0].Name)
	assert.Empty(t, ws.Relationships)
	assert.Equal(t, schema.ForeignKeyParams{}, ws.Tables[0].Columns[0].Params)
	assert.Len(t, ws.Constraints, 1, "constraints on other tables survive")

	require.NoError(t, f.store.RemoveTable(f.orders.ID))
	assert.Empty(t, f.store.Constraints())
	assert.ErrorIs(t, f.store.RemoveTable(f.orders.ID), ErrTableNotFound)
}

func TestRemoveTableIsObservedAtomically(t *testing.T) {
	f := newUsersOrders(t)
	for i := 0; i < 3; i++ {
		_, err := f.store.AddRelationship(schema.NewRelationship(f.users.ID, f.users.Columns[0].ID, f.orders.ID, f.orders.Columns[0].ID))
		require.NoError(t, err)
	}
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{
		TableID: f.users.ID, ColumnID: f.users.Columns[0].ID, Points: monthlyPoints(5),
	}))

	var observed []schema.Workspace
	unsubscribe := f.store.Subscribe(func(ws schema.Workspace) { observed = append(observed, ws) })
	defer unsubscribe()

	require.NoError(t, f.store.RemoveTable(f.users.ID))
	require.Len(t, observed, 1)
	assert.Empty(t, observed[0].Relationships)
	assert.Empty(t, observed[0].Constraints)
	assertConsistent(t, observed[0])
}

func TestRemoveColumnCascades(t *testing.T) {
	f := newUsersOrders(t)
	amount := f.orders.Columns[1]
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{
		TableID: f.orders.ID, ColumnID: amount.ID, Points: monthlyPoints(1),
	}))

	require.NoError(t, f.store.RemoveColumn(f.orders.ID, amount.ID))
	assert.Empty(t, f.store.Constraints())
	assert.Len(t, f.store.Snapshot().Relationships, 1)

	require.NoError(t, f.store.RemoveColumn(f.orders.ID, f.orders.Columns[0].ID))
	assert.Empty(t, f.store.Snapshot().Relationships)
	assert.ErrorIs(t, f.store.RemoveColumn(f.orders.ID, "missing"), ErrColumnNotFound)
}

func TestUndoRedoRemoveTable(t *testing.T) {
	f := newUsersOrders(t)
	before := f.store.Graph()

	require.NoError(t, f.store.RemoveTable(f.users.ID))
	after := f.store.Graph()

	require.True(t, f.store.Undo())
	assert.Equal(t, before, f.store.Graph())
	assert.Len(t, f.store.Snapshot().Relationships, 1)

	require.True(t, f.store.Redo())
	assert.Equal(t, after, f.store.Graph())
	redone := f.store.Graph()
	_, ok := redone.TableByName("users")
	assert.False(t, ok)
	assert.Empty(t, f.store.Snapshot().Relationships)
}

func TestUndoWalksBackToEmpty(t *testing.T) {
	f := newUsersOrders(t)
	for f.store.CanUndo() {
		require.True(t, f.store.Undo())
		assertConsistent(t, f.store.Snapshot())
	}
	assert.Empty(t, f.store.Snapshot().Tables)
	assert.False(t, f.store.Undo())

	for f.store.CanRedo() {
		require.True(t, f.store.Redo())
	}
	assert.Len(t, f.store.Snapshot().Tables, 2)
	assert.Len(t, f.store.Snapshot().Relationships, 1)
}

func TestHistoryDepthBoundsUndo(t *testing.T) {
	for _, depth := range []int{1, 3} {
		s := New(WithHistoryDepth(depth))
		for i := 0; i < depth; i++ {
			_, err := s.AddTable(schema.NewTable("table_"+string(rune('a'+i)), 10))
			require.NoError(t, err)
		}

		undone := 0
		for s.Undo() {
			undone++
		}
		assert.Equal(t, depth, undone, "depth %d", depth)
		assert.Empty(t, s.Graph().Tables, "depth %d", depth)

		redone := 0
		for s.Redo() {
			redone++
		}
		assert.Equal(t, depth, redone, "depth %d", depth)
		assert.Len(t, s.Graph().Tables, depth, "depth %d", depth)
	}
}

func TestCosmeticEditsBypassHistory(t *testing.T) {
	f := newUsersOrders(t)
	require.NoError(t, f.store.RenameTable(f.users.ID, "customers"))
	_, err := f.store.UpdateRowCount(f.users.ID, 250)
	require.NoError(t, err)
	require.NoError(t, f.store.MoveTable(f.users.ID, schema.Position{X: 10, Y: 20}))

	// the last structural change was AddRelationship; undo reverts it and,
	// because snapshots are whole graphs, the cosmetic edits made after it too
	require.True(t, f.store.Undo())
	g := f.store.Graph()
	assert.Empty(t, g.Relationships)
	users, _ := g.Table(f.users.ID)
	assert.Equal(t, "users", users.Name)

	require.True(t, f.store.Redo())
	redone := f.store.Graph()
	users, _ = redone.Table(f.users.ID)
	assert.Equal(t, "customers", users.Name, "redo returns to the live state recorded at undo time")
	assert.Equal(t, int64(250), users.RowCount)
}

func TestConstraintEditsAreNotUndoable(t *testing.T) {
	f := newUsersOrders(t)
	amount := f.orders.Columns[1]
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{
		TableID: f.orders.ID, ColumnID: amount.ID, Points: monthlyPoints(1, 2),
	}))

	// undoing the relationship leaves the constraint alone
	require.True(t, f.store.Undo())
	_, ok := f.store.Constraint(f.orders.ID, amount.ID)
	assert.True(t, ok)

	// removing the column drops the constraint; undo restores the column only
	require.True(t, f.store.Redo())
	require.NoError(t, f.store.RemoveColumn(f.orders.ID, amount.ID))
	require.True(t, f.store.Undo())
	restored := f.store.Graph()
	_, _, colBack := restored.Column(f.orders.ID, amount.ID)
	assert.True(t, colBack)
	_, ok = f.store.Constraint(f.orders.ID, amount.ID)
	assert.False(t, ok)
}

func TestUndoPrunesConstraintOfVanishedColumn(t *testing.T) {
	s := New()
	tbl, err := s.AddTable(schema.NewTable("sales", 10))
	require.NoError(t, err)
	col, err := s.AddColumn(tbl.ID, schema.NewColumn("revenue", schema.TypeFloat))
	require.NoError(t, err)
	require.NoError(t, s.UpsertConstraint(schema.OutcomeConstraint{TableID: tbl.ID, ColumnID: col.ID, Points: monthlyPoints(1)}))

	require.True(t, s.Undo())
	assert.Empty(t, s.Constraints())
	assertConsistent(t, s.Snapshot())
}

func TestUpdateRowCountValidates(t *testing.T) {
	f := newUsersOrders(t)

	res, err := f.store.UpdateRowCount(f.users.ID, 11_000_000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "exceeds maximum")
	g := f.store.Graph()
	users, _ := g.Table(f.users.ID)
	assert.Equal(t, int64(100), users.RowCount)

	res, err = f.store.UpdateRowCount(f.users.ID, 2_000_000)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)

	var verr *ValidationError
	_, err = f.store.UpdateRowCount(f.users.ID, 0)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "row_count", verr.Field)
}

func TestRenameKeepsReferences(t *testing.T) {
	f := newUsersOrders(t)
	require.NoError(t, f.store.RenameTable(f.users.ID, "accounts"))
	ws := f.store.Snapshot()
	assert.Equal(t, f.users.ID, ws.Relationships[0].SourceTableID)
	g := ws.Graph()
	orders, _ := g.Table(f.orders.ID)
	target, _ := orders.Columns[0].ForeignKeyTarget()
	assert.Equal(t, f.users.ID, target)
}

func TestUpdateColumnTypeChangePrunesConstraint(t *testing.T) {
	f := newUsersOrders(t)
	amount := f.orders.Columns[1]
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{
		TableID: f.orders.ID, ColumnID: amount.ID, Points: monthlyPoints(1),
	}))

	// still numeric: constraint kept
	require.NoError(t, f.store.UpdateColumn(f.orders.ID, amount.ID, ColumnUpdate{Params: schema.IntegerParams{Min: 0, Max: 10}}))
	assert.Len(t, f.store.Constraints(), 1)

	name := "label"
	require.NoError(t, f.store.UpdateColumn(f.orders.ID, amount.ID, ColumnUpdate{Name: &name, Params: schema.DefaultParams(schema.TypeText)}))
	assert.Empty(t, f.store.Constraints())
	g := f.store.Graph()
	_, col, _ := g.Column(f.orders.ID, amount.ID)
	assert.Equal(t, "label", col.Name)
	assert.Equal(t, schema.TypeText, col.Type)
	assert.Equal(t, amount.ID, col.ID)
}

func TestUpsertConstraint(t *testing.T) {
	f := newUsersOrders(t)
	amount := f.orders.Columns[1]

	tests := []struct {
		name    string
		c       schema.OutcomeConstraint
		wantErr error
	}{
		{name: "foreign key column", c: schema.OutcomeConstraint{TableID: f.orders.ID, ColumnID: f.orders.Columns[0].ID, Points: monthlyPoints(1)}, wantErr: ErrNotNumeric},
		{name: "missing column", c: schema.OutcomeConstraint{TableID: f.orders.ID, ColumnID: "x", Points: monthlyPoints(1)}, wantErr: ErrColumnNotFound},
		{name: "empty", c: schema.OutcomeConstraint{TableID: f.orders.ID, ColumnID: amount.ID}, wantErr: ErrEmptyCurve},
		{name: "unordered", c: schema.OutcomeConstraint{TableID: f.orders.ID, ColumnID: amount.ID, Points: []schema.CurvePoint{monthlyPoints(1, 2)[1], monthlyPoints(1)[0]}}, wantErr: ErrUnorderedCurve},
		{name: "bad unit", c: schema.OutcomeConstraint{TableID: f.orders.ID, ColumnID: amount.ID, Points: monthlyPoints(1), TimeUnit: "fortnight"}, wantErr: ErrInvalidTimeUnit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.store.UpsertConstraint(tt.c), tt.wantErr)
		})
	}

	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{TableID: f.orders.ID, ColumnID: amount.ID, Points: monthlyPoints(1)}))
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{TableID: f.orders.ID, ColumnID: amount.ID, Points: monthlyPoints(7, 8)}))
	all := f.store.Constraints()
	require.Len(t, all, 1)
	assert.Len(t, all[0].Points, 2)
	assert.Equal(t, schema.UnitMonth, all[0].TimeUnit)

	require.NoError(t, f.store.RemoveConstraint(f.orders.ID, amount.ID))
	assert.ErrorIs(t, f.store.RemoveConstraint(f.orders.ID, amount.ID), ErrConstraintNotFound)
}

func TestReplaceGraphDropsUnresolved(t *testing.T) {
	s := New()
	users := schema.NewTable("users", 10, schema.NewColumn("id", schema.TypeInteger))
	good := schema.NewRelationship(users.ID, users.Columns[0].ID, users.ID, users.Columns[0].ID)
	bad := schema.NewRelationship(users.ID, users.Columns[0].ID, "ghost", "ghost")

	require.NoError(t, s.ReplaceGraph(schema.Graph{Tables: []schema.Table{users}, Relationships: []schema.Relationship{good, bad}}))
	assert.Equal(t, []schema.Relationship{good}, s.Snapshot().Relationships)

	require.True(t, s.Undo())
	assert.Empty(t, s.Snapshot().Tables)
}

func TestImportIsOneCommit(t *testing.T) {
	p := &memPersister{}
	f := newUsersOrders(t, WithPersister(p))
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{
		TableID: f.orders.ID, ColumnID: f.orders.Columns[1].ID, Points: monthlyPoints(1),
	}))

	events := schema.NewColumn("count", schema.TypeInteger)
	label := schema.NewColumn("label", schema.TypeText)
	tbl := schema.NewTable("events", 50, events, label)
	g := schema.Graph{Tables: []schema.Table{tbl}}
	constraints := []schema.OutcomeConstraint{
		{TableID: tbl.ID, ColumnID: events.ID, Points: monthlyPoints(1)},
		{TableID: tbl.ID, ColumnID: events.ID, Points: monthlyPoints(4, 5)},
		{TableID: tbl.ID, ColumnID: label.ID, Points: monthlyPoints(1)},
		{TableID: tbl.ID, ColumnID: "ghost", Points: monthlyPoints(1)},
		{TableID: tbl.ID, ColumnID: events.ID, Points: monthlyPoints(), TimeUnit: schema.UnitDay},
	}

	var observed []schema.Workspace
	unsubscribe := f.store.Subscribe(func(ws schema.Workspace) { observed = append(observed, ws) })
	defer unsubscribe()
	saves := len(p.saved)

	require.NoError(t, f.store.Import("Events", g, constraints))
	require.Len(t, observed, 1)
	assert.Equal(t, saves+1, len(p.saved))

	ws := observed[0]
	assert.Equal(t, "Events", ws.Name)
	require.Len(t, ws.Tables, 1)
	assert.Equal(t, "events", ws.Tables[0].Name)
	require.Len(t, ws.Constraints, 1)
	assert.Equal(t, events.ID, ws.Constraints[0].ColumnID)
	assert.Len(t, ws.Constraints[0].Points, 2)
	assert.Equal(t, schema.UnitMonth, ws.Constraints[0].TimeUnit)
	assertConsistent(t, ws)
	assert.Equal(t, ws, p.saved[len(p.saved)-1])

	require.True(t, f.store.Undo())
	assert.Len(t, f.store.Snapshot().Tables, 2)
	assert.Empty(t, f.store.Constraints(), "undo prunes constraints of vanished columns")
}

func TestImportKeepsNameWhenEmpty(t *testing.T) {
	s := New()
	require.NoError(t, s.SetName("Shop"))
	require.NoError(t, s.Import("", schema.Graph{}, nil))
	assert.Equal(t, "Shop", s.Name())
}

func TestRandomMutationsKeepReferencesValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New(WithHistoryDepth(20))

	pickTable := func() (schema.Table, bool) {
		g := s.Graph()
		if len(g.Tables) == 0 {
			return schema.Table{}, false
		}
		return g.Tables[rng.Intn(len(g.Tables))], true
	}

	for i := 0; i < 500; i++ {
		switch rng.Intn(9) {
		case 0, 1:
			_, _ = s.AddTable(schema.NewTable("t", 10, schema.NewColumn("id", schema.TypeInteger), schema.NewColumn("v", schema.TypeFloat)))
		case 2:
			if tbl, ok := pickTable(); ok {
				_ = s.RemoveTable(tbl.ID)
			}
		case 3:
			if tbl, ok := pickTable(); ok {
				_, _ = s.AddColumn(tbl.ID, schema.NewColumn("n", schema.TypeInteger))
			}
		case 4:
			if tbl, ok := pickTable(); ok && len(tbl.Columns) > 0 {
				_ = s.RemoveColumn(tbl.ID, tbl.Columns[rng.Intn(len(tbl.Columns))].ID)
			}
		case 5:
			a, ok1 := pickTable()
			b, ok2 := pickTable()
			if ok1 && ok2 && len(a.Columns) > 0 && len(b.Columns) > 0 {
				_, _ = s.AddRelationship(schema.NewRelationship(a.ID, a.Columns[0].ID, b.ID, b.Columns[len(b.Columns)-1].ID))
			}
		case 6:
			if tbl, ok := pickTable(); ok && len(tbl.Columns) > 0 {
				col := tbl.Columns[rng.Intn(len(tbl.Columns))]
				_ = s.UpsertConstraint(schema.OutcomeConstraint{TableID: tbl.ID, ColumnID: col.ID, Points: monthlyPoints(1, 2, 3)})
			}
		case 7:
			s.Undo()
		case 8:
			s.Redo()
		}
		assertConsistent(t, s.Snapshot())
	}
}

type memPersister struct {
	mu    sync.Mutex
	saved []schema.Workspace
	err   error
}

func (p *memPersister) Save(_ context.Context, ws schema.Workspace) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, ws)
	return nil
}

func (p *memPersister) Load(context.Context) (schema.Workspace, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saved) == 0 {
		return schema.Workspace{}, false, p.err
	}
	return p.saved[len(p.saved)-1], true, nil
}

func TestPersistAfterCommit(t *testing.T) {
	p := &memPersister{}
	f := newUsersOrders(t, WithPersister(p))
	require.NoError(t, f.store.SetName("Shop"))

	require.NotEmpty(t, p.saved)
	last := p.saved[len(p.saved)-1]
	assert.Equal(t, "Shop", last.Name)
	assert.Len(t, last.Tables, 2)
	assert.Len(t, last.Relationships, 1)
}

func TestPersistFailureDoesNotFailMutation(t *testing.T) {
	p := &memPersister{err: errors.New("disk full")}
	s := New(WithPersister(p))
	_, err := s.AddTable(schema.NewTable("users", 10))
	require.NoError(t, err)
	assert.Len(t, s.Snapshot().Tables, 1)
}

func TestRestore(t *testing.T) {
	p := &memPersister{}
	f := newUsersOrders(t, WithPersister(p))
	require.NoError(t, f.store.UpsertConstraint(schema.OutcomeConstraint{
		TableID: f.orders.ID, ColumnID: f.orders.Columns[1].ID, Points: monthlyPoints(3),
	}))

	fresh := New(WithPersister(p))
	loaded, err := fresh.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, loaded)
	assert.Equal(t, f.store.Snapshot(), fresh.Snapshot())
	assert.False(t, fresh.CanUndo(), "history is not persisted")

	empty := New(WithPersister(&memPersister{}))
	loaded, err = empty.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, DefaultName, empty.Name())
}
