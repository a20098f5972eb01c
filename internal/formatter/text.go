package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemadesigner/internal/schema"
)

// TextFormatter formats a workspace as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the workspace in compact text format
func (f *TextFormatter) Format(ws schema.Workspace) error {
	g := ws.Graph()
	_, _ = fmt.Fprintf(f.writer, "SCHEMA %s\n", ws.Name)

	for _, table := range g.Tables {
		_, _ = fmt.Fprintln(f.writer)
		f.formatTable(ws, &g, table)
	}
	return nil
}

func (f *TextFormatter) formatTable(ws schema.Workspace, g *schema.Graph, table schema.Table) {
	_, _ = fmt.Fprintf(f.writer, "TABLE %s (%d rows)\n", table.Name, table.RowCount)

	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(ws, g, table.ID, col))
	}

	outgoing, _ := references(g, table.ID)
	if len(outgoing) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, ref := range outgoing {
			_, _ = fmt.Fprintf(f.writer, "    %s → %s.%s\n", ref.ChildColumn, ref.ParentTable, ref.ParentColumn)
		}
	}
}

func (f *TextFormatter) formatColumn(ws schema.Workspace, g *schema.Graph, tableID string, col schema.Column) string {
	parts := []string{col.Name + ":", string(col.Type)}

	if params := paramSummary(g, col); params != "" {
		parts = append(parts, "["+params+"]")
	}
	if curve, ok := constraintSummary(ws, tableID, col.ID); ok {
		parts = append(parts, "CURVE "+curve)
	}

	return strings.Join(parts, " ")
}
