package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/schemadesigner/internal/schema"
)

// MarkdownFormatter formats a workspace as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the workspace in markdown format
func (f *MarkdownFormatter) Format(ws schema.Workspace) error {
	_, _ = fmt.Fprintf(f.writer, "# %s\n\n", ws.Name)

	g := ws.Graph()
	for _, table := range g.Tables {
		f.formatTable(ws, &g, table, false)
	}
	return nil
}

// formatTable writes one table section. Incoming references are only
// listed when the table stands in a file of its own.
func (f *MarkdownFormatter) formatTable(ws schema.Workspace, g *schema.Graph, table schema.Table, incoming bool) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table.Name)
	_, _ = fmt.Fprintf(f.writer, "Rows: %d\n\n", table.RowCount)

	_, _ = fmt.Fprintln(f.writer, "### Columns")
	_, _ = fmt.Fprintln(f.writer)
	for _, col := range table.Columns {
		params := paramSummary(g, col)
		if params != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, col.Type, params)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, col.Type)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	var curves []string
	for _, col := range table.Columns {
		if desc, ok := constraintSummary(ws, table.ID, col.ID); ok {
			curves = append(curves, fmt.Sprintf("- **%s:** %s", col.Name, desc))
		}
	}
	if len(curves) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Outcome curves")
		_, _ = fmt.Fprintln(f.writer)
		for _, line := range curves {
			_, _ = fmt.Fprintln(f.writer, line)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	outgoing, incomingRefs := references(g, table.ID)
	if len(outgoing) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, ref := range outgoing {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s\n", ref.ChildColumn, ref.ParentTable, ref.ParentColumn)
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if incoming && len(incomingRefs) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, ref := range incomingRefs {
			_, _ = fmt.Fprintf(f.writer, "- %s.%s → %s\n", ref.ChildTable, ref.ChildColumn, ref.ParentColumn)
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}
