package schema

// Clone returns a deep copy of the graph
func (g Graph) Clone() Graph {
	out := Graph{}
	if g.Tables != nil {
		out.Tables = make([]Table, len(g.Tables))
		for i, t := range g.Tables {
			out.Tables[i] = t.Clone()
		}
	}
	if g.Relationships != nil {
		out.Relationships = append([]Relationship(nil), g.Relationships...)
	}
	return out
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	cp := t
	if t.Columns != nil {
		cp.Columns = make([]Column, len(t.Columns))
		for i, c := range t.Columns {
			cp.Columns[i] = c.Clone()
		}
	}
	return cp
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	cp := c
	if c.Params != nil {
		cp.Params = c.Params.clone()
	}
	return cp
}

// Clone returns a deep copy of the constraint
func (c OutcomeConstraint) Clone() OutcomeConstraint {
	cp := c
	if c.Points != nil {
		cp.Points = append([]CurvePoint(nil), c.Points...)
	}
	if c.AvgTransactionValue != nil {
		v := *c.AvgTransactionValue
		cp.AvgTransactionValue = &v
	}
	return cp
}

// CloneConstraints deep-copies a constraint list
func CloneConstraints(in []OutcomeConstraint) []OutcomeConstraint {
	if in == nil {
		return nil
	}
	out := make([]OutcomeConstraint, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// Clone returns a deep copy of the workspace
func (w Workspace) Clone() Workspace {
	g := w.Graph().Clone()
	return Workspace{
		Name:          w.Name,
		Tables:        g.Tables,
		Relationships: g.Relationships,
		Constraints:   CloneConstraints(w.Constraints),
	}
}
