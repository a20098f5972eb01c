// Package view is the edge between the model and a node-link canvas: it
// projects the workspace into nodes and edges and turns canvas gestures
// back into model mutations.
package view

import (
	"github.com/tordrt/schemadesigner/internal/schema"
)

// Column is a column row rendered inside a node
type Column struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Type          schema.ColumnType `json:"type"`
	HasConstraint bool              `json:"has_constraint"`
}

// Node is one table on the canvas
type Node struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	RowCount int64           `json:"row_count"`
	Position schema.Position `json:"position"`
	Columns  []Column        `json:"columns"`
}

// Edge is one relationship. Handles carry the column ids at each end.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"source_handle"`
	Target       string `json:"target"`
	TargetHandle string `json:"target_handle"`
}

// View is the read-only projection handed to the canvas
type View struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Project derives the view from ws. The same workspace always yields the
// same view; relationships that do not resolve get no edge.
func Project(ws schema.Workspace) View {
	g := ws.Graph()
	constrained := make(map[[2]string]bool, len(ws.Constraints))
	for _, c := range ws.Constraints {
		constrained[[2]string{c.TableID, c.ColumnID}] = true
	}

	v := View{
		Nodes: make([]Node, 0, len(g.Tables)),
		Edges: make([]Edge, 0, len(g.Relationships)),
	}
	for _, t := range g.Tables {
		n := Node{
			ID:       t.ID,
			Name:     t.Name,
			RowCount: t.RowCount,
			Position: t.Position,
			Columns:  make([]Column, 0, len(t.Columns)),
		}
		for _, c := range t.Columns {
			n.Columns = append(n.Columns, Column{
				ID:            c.ID,
				Name:          c.Name,
				Type:          c.Type,
				HasConstraint: constrained[[2]string{t.ID, c.ID}],
			})
		}
		v.Nodes = append(v.Nodes, n)
	}
	for _, r := range g.Relationships {
		_, _, src := g.Column(r.SourceTableID, r.SourceColumnID)
		_, _, dst := g.Column(r.TargetTableID, r.TargetColumnID)
		if !src || !dst {
			continue
		}
		v.Edges = append(v.Edges, Edge{
			ID:           r.ID,
			Source:       r.SourceTableID,
			SourceHandle: r.SourceColumnID,
			Target:       r.TargetTableID,
			TargetHandle: r.TargetColumnID,
		})
	}
	return v
}
