package curve

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/store"
)

// Engine opens drafts against the store and commits them back
type Engine struct {
	store  *store.Store
	now    func() time.Time
	logger *slog.Logger
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock overrides the clock used to stamp committed curves
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithEngineLogger sets the logger (slog.Default() otherwise)
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine bound to s
func NewEngine(s *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{store: s, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin opens a draft for a numeric column: the existing constraint when
// there is one, the flat preset otherwise
func (e *Engine) Begin(tableID, columnID string) (*Draft, error) {
	g := e.store.Graph()
	_, col, ok := g.Column(tableID, columnID)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", store.ErrColumnNotFound, tableID, columnID)
	}
	if !col.Type.IsNumeric() {
		return nil, fmt.Errorf("%w: %s is %s", store.ErrNotNumeric, col.Name, col.Type)
	}
	if c, ok := e.store.Constraint(tableID, columnID); ok {
		return DraftFrom(c), nil
	}
	return NewDraft(tableID, columnID), nil
}

// Preview commits d without storing the result
func (e *Engine) Preview(d *Draft) (schema.OutcomeConstraint, error) {
	return d.Commit(e.now())
}

// Save commits d and upserts it, replacing any constraint on the same column
func (e *Engine) Save(d *Draft) (schema.OutcomeConstraint, error) {
	c, err := d.Commit(e.now())
	if err != nil {
		return schema.OutcomeConstraint{}, err
	}
	if err := e.store.UpsertConstraint(c); err != nil {
		return schema.OutcomeConstraint{}, err
	}
	e.logger.Info("saved outcome constraint",
		slog.String("table_id", c.TableID),
		slog.String("column_id", c.ColumnID),
		slog.Int("points", len(c.Points)),
		slog.String("time_unit", string(c.TimeUnit)),
	)
	return c, nil
}

// Remove deletes the constraint of a column
func (e *Engine) Remove(tableID, columnID string) error {
	return e.store.RemoveConstraint(tableID, columnID)
}
