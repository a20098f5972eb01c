// Package store is the canonical in-memory schema model.
//
// The Store owns two decoupled halves: an undoable core (tables and
// relationships, snapshotted into a history.Manager before every structural
// mutation) and a non-undoable auxiliary (outcome constraints, the display
// name and cosmetic table fields). Constraint edits are deliberately NOT
// undoable.
//
// Every mutation is computed against a private copy of the state and swapped
// in whole, so cascades (removing a table together with its relationships
// and constraints) are never observable half-applied. After the swap the
// injected Persister is called; its failures are logged and never turn a
// committed mutation into an error.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/tordrt/schemadesigner/internal/history"
	"github.com/tordrt/schemadesigner/internal/schema"
)

// DefaultName is the display name of a workspace nobody has named yet
const DefaultName = "Untitled Schema"

const defaultPersistTimeout = 5 * time.Second

// Persister is the local cache port. Only the Workspace document is
// persisted; history is not.
type Persister interface {
	Save(ctx context.Context, ws schema.Workspace) error
	Load(ctx context.Context) (schema.Workspace, bool, error)
}

// Option configures a Store
type Option func(*Store)

// WithPersister attaches a local cache
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger (slog.Default() otherwise)
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistoryDepth bounds the number of retained undo snapshots
func WithHistoryDepth(n int) Option {
	return func(s *Store) { s.historyDepth = n }
}

// WithPersistTimeout bounds a single Persister.Save call
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

type state struct {
	name        string
	graph       schema.Graph
	constraints []schema.OutcomeConstraint
}

func (st state) clone() state {
	return state{
		name:        st.name,
		graph:       st.graph.Clone(),
		constraints: schema.CloneConstraints(st.constraints),
	}
}

func (st state) workspace() schema.Workspace {
	g := st.graph.Clone()
	return schema.Workspace{
		Name:          st.name,
		Tables:        g.Tables,
		Relationships: g.Relationships,
		Constraints:   schema.CloneConstraints(st.constraints),
	}
}

// Store is the schema graph model. It is safe for concurrent use, although
// the design assumes one logical editor issuing mutations in sequence.
type Store struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex

	st      state
	history *history.Manager

	persister      Persister
	persistTimeout time.Duration
	historyDepth   int
	logger         *slog.Logger

	subscribers map[int]func(schema.Workspace)
	nextSubID   int
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		st:             state{name: DefaultName},
		persistTimeout: defaultPersistTimeout,
		logger:         slog.Default(),
		subscribers:    make(map[int]func(schema.Workspace)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = history.New(s.historyDepth, s.logger)
	return s
}

// Restore replaces the live state with the persisted workspace, if any,
// and starts a fresh history. It reports whether anything was loaded.
func (s *Store) Restore(ctx context.Context) (bool, error) {
	if s.persister == nil {
		return false, nil
	}
	ws, found, err := s.persister.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load workspace: %w", err)
	}
	if !found {
		return false, nil
	}

	s.mu.Lock()
	next := state{
		name:        ws.Name,
		graph:       ws.Graph().Clone(),
		constraints: schema.CloneConstraints(ws.Constraints),
	}
	if next.name == "" {
		next.name = DefaultName
	}
	sanitize(&next, s.logger)
	s.st = next
	s.history.Reset()
	out := next.workspace()
	subs := s.subscriberList()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range subs {
		fn(out)
	}
	return true, nil
}

// Snapshot returns a deep copy of the current workspace
func (s *Store) Snapshot() schema.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.workspace()
}

// Graph returns a deep copy of the undoable state
func (s *Store) Graph() schema.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.graph.Clone()
}

// Name returns the workspace display name
func (s *Store) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.name
}

// SetName changes the workspace display name. Not undoable.
func (s *Store) SetName(name string) error {
	return s.apply("set_name", false, func(st *state) error {
		if name == "" {
			name = DefaultName
		}
		st.name = name
		return nil
	})
}

// CanUndo reports whether Undo would change the graph
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would change the graph
func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// Undo restores the graph preceding the last structural mutation. Outcome
// constraints are not restored; any whose column disappears with the undo
// are pruned in the same update.
func (s *Store) Undo() bool {
	return s.travel("undo", func(current schema.Graph) (schema.Graph, bool) {
		return s.history.Undo(current)
	})
}

// Redo re-applies the structural mutation undone last
func (s *Store) Redo() bool {
	return s.travel("redo", func(schema.Graph) (schema.Graph, bool) {
		return s.history.Redo()
	})
}

func (s *Store) travel(op string, step func(schema.Graph) (schema.Graph, bool)) bool {
	moved := false
	_ = s.apply(op, false, func(st *state) error {
		g, ok := step(st.graph)
		if !ok {
			return errNoChange
		}
		st.graph = g
		sanitize(st, s.logger)
		moved = true
		return nil
	})
	return moved
}

// Subscribe registers fn to receive the workspace after every committed
// change. Callbacks run in commit order and must not mutate the store
// synchronously. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(schema.Workspace)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) subscriberList() []func(schema.Workspace) {
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(schema.Workspace), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subscribers[id])
	}
	return out
}

var errNoChange = errors.New("no change")

// apply runs fn against a copy of the live state and swaps the copy in when
// fn succeeds. Structural mutations snapshot the pre-state into history at
// the same moment. Persistence and subscribers run after the swap, in
// commit order.
func (s *Store) apply(op string, structural bool, fn func(st *state) error) error {
	s.mu.Lock()
	next := s.st.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	if structural {
		s.history.Snapshot(s.st.graph)
	}
	s.st = next
	out := next.workspace()
	subs := s.subscriberList()

	// hand over to the notify lock so later commits wait their turn
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.logger.Debug("model updated",
		slog.String("op", op),
		slog.Bool("structural", structural),
		slog.Int("tables", len(out.Tables)),
		slog.Int("relationships", len(out.Relationships)),
		slog.Int("constraints", len(out.Constraints)),
	)

	s.persist(op, out)
	for _, sub := range subs {
		sub(out)
	}
	return nil
}

func (s *Store) persist(op string, ws schema.Workspace) {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, ws); err != nil {
		s.logger.Warn("failed to persist workspace", slog.String("op", op), slog.Any("error", err))
	}
}
