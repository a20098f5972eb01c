package store

import (
	"fmt"

	"github.com/tordrt/schemadesigner/internal/schema"
)

// UpsertConstraint creates or replaces the outcome constraint of a column.
// At most one constraint exists per column. Not undoable.
func (s *Store) UpsertConstraint(c schema.OutcomeConstraint) error {
	c = c.Clone()
	if err := checkCurve(&c); err != nil {
		return err
	}

	return s.apply("upsert_constraint", false, func(st *state) error {
		_, col, ok := st.graph.Column(c.TableID, c.ColumnID)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, c.TableID, c.ColumnID)
		}
		if !col.Type.IsNumeric() {
			return fmt.Errorf("%w: %s is %s", ErrNotNumeric, col.Name, col.Type)
		}
		for i := range st.constraints {
			if st.constraints[i].TableID == c.TableID && st.constraints[i].ColumnID == c.ColumnID {
				st.constraints[i] = c
				return nil
			}
		}
		st.constraints = append(st.constraints, c)
		return nil
	})
}

// checkCurve defaults the time unit and requires a non-empty curve with
// strictly increasing timestamps
func checkCurve(c *schema.OutcomeConstraint) error {
	if c.TimeUnit == "" {
		c.TimeUnit = schema.UnitMonth
	}
	if !c.TimeUnit.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTimeUnit, c.TimeUnit)
	}
	if len(c.Points) == 0 {
		return ErrEmptyCurve
	}
	for i := 1; i < len(c.Points); i++ {
		if !c.Points[i].Timestamp.After(c.Points[i-1].Timestamp) {
			return fmt.Errorf("%w: point %d", ErrUnorderedCurve, i)
		}
	}
	return nil
}

// RemoveConstraint deletes the outcome constraint of a column
func (s *Store) RemoveConstraint(tableID, columnID string) error {
	return s.apply("remove_constraint", false, func(st *state) error {
		before := len(st.constraints)
		st.constraints = filter(st.constraints, func(c schema.OutcomeConstraint) bool {
			return c.TableID != tableID || c.ColumnID != columnID
		})
		if len(st.constraints) == before {
			return fmt.Errorf("%w: %s.%s", ErrConstraintNotFound, tableID, columnID)
		}
		return nil
	})
}

// Constraint returns the outcome constraint of a column, if any
func (s *Store) Constraint(tableID, columnID string) (schema.OutcomeConstraint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.st.constraints {
		if c.TableID == tableID && c.ColumnID == columnID {
			return c.Clone(), true
		}
	}
	return schema.OutcomeConstraint{}, false
}

// Constraints returns every outcome constraint in insertion order
func (s *Store) Constraints() []schema.OutcomeConstraint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return schema.CloneConstraints(s.st.constraints)
}
