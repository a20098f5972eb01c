// Package history implements snapshot-based undo/redo over the structural
// part of a schema graph.
//
// Snapshots are taken before the mutation that motivates them, so index 0
// means no structural change has happened yet and entry 0 is the initial
// (empty or loaded) graph. Only what the caller snapshots is undoable:
// outcome constraints and cosmetic edits (renames, row counts, positions)
// never pass through here and are therefore untouched by Undo and Redo.
package history

import (
	"log/slog"

	"github.com/tordrt/schemadesigner/internal/schema"
)

// DefaultMaxDepth is the number of snapshots retained when no depth is given
const DefaultMaxDepth = 50

// Manager keeps a bounded log of graph snapshots and a cursor into it.
//
// While the cursor equals Len() the live graph is newer than every entry.
// Otherwise the live graph equals the entry under the cursor.
//
// Manager is not safe for concurrent use; the store serialises access.
type Manager struct {
	entries  []schema.Graph
	index    int
	maxDepth int
	logger   *slog.Logger
}

// New creates a manager retaining at most maxDepth snapshots. The live
// graph recorded by Undo is kept on top of them, so maxDepth undos are
// always reachable.
func New(maxDepth int, logger *slog.Logger) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{maxDepth: maxDepth, logger: logger}
}

// Snapshot records current as the state preceding a structural mutation.
// Any redo branch is discarded.
func (m *Manager) Snapshot(current schema.Graph) {
	m.entries = append(m.entries[:m.index], current.Clone())
	m.index = len(m.entries)
	m.evict(m.maxDepth)
}

// Undo steps the cursor back and returns the graph to restore. The live
// graph is recorded first when it is not yet in the log so Redo can return
// to it. Undo at the start of history returns false.
func (m *Manager) Undo(current schema.Graph) (schema.Graph, bool) {
	if m.index == 0 {
		return schema.Graph{}, false
	}
	if m.index == len(m.entries) {
		m.entries = append(m.entries, current.Clone())
		m.evict(m.maxDepth + 1)
	}
	m.index--
	m.logger.Debug("history undo", slog.Int("index", m.index), slog.Int("entries", len(m.entries)))
	return m.entries[m.index].Clone(), true
}

// Redo steps the cursor forward and returns the graph to restore. Redo at
// the end of history returns false.
func (m *Manager) Redo() (schema.Graph, bool) {
	if m.index >= len(m.entries)-1 {
		return schema.Graph{}, false
	}
	m.index++
	m.logger.Debug("history redo", slog.Int("index", m.index), slog.Int("entries", len(m.entries)))
	return m.entries[m.index].Clone(), true
}

// CanUndo reports whether Undo would change state
func (m *Manager) CanUndo() bool { return m.index > 0 }

// CanRedo reports whether Redo would change state
func (m *Manager) CanRedo() bool { return m.index < len(m.entries)-1 }

// Index returns the cursor position
func (m *Manager) Index() int { return m.index }

// Len returns the number of retained snapshots
func (m *Manager) Len() int { return len(m.entries) }

// Reset drops every snapshot
func (m *Manager) Reset() {
	m.entries = nil
	m.index = 0
}

// evict drops the oldest entries until at most limit remain
func (m *Manager) evict(limit int) {
	for len(m.entries) > limit {
		m.entries = m.entries[1:]
		if m.index > 0 {
			m.index--
		}
		m.logger.Debug("history evicted oldest snapshot", slog.Int("max_depth", m.maxDepth))
	}
}
