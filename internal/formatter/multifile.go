package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/serializer"
)

const (
	overviewFile = "_overview.md"
	documentFile = "schema.json"
)

// BundleWriter writes a workspace to a directory: an overview, one
// markdown file per table and the serialized document
type BundleWriter struct {
	OutputDir string
}

// NewBundleWriter creates a bundle writer for dir
func NewBundleWriter(dir string) *BundleWriter {
	return &BundleWriter{OutputDir: dir}
}

// Write creates the output directory if needed and writes every file
func (w *BundleWriter) Write(ws schema.Workspace) error {
	if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := tableFiles(ws.Tables)

	if err := w.writeOverview(ws, files); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	g := ws.Graph()
	for _, table := range g.Tables {
		if err := w.writeTableFile(ws, &g, table, files[table.ID]); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table.Name, err)
		}
	}

	if err := w.writeDocument(ws); err != nil {
		return fmt.Errorf("failed to write %s: %w", documentFile, err)
	}
	return nil
}

func (w *BundleWriter) writeOverview(ws schema.Workspace, files map[string]string) error {
	file, err := os.Create(filepath.Join(w.OutputDir, overviewFile))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# %s\n\n", ws.Name)
	_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>.md`. ")
	_, _ = fmt.Fprintf(file, "The generator payload is in `%s`.\n\n", documentFile)
	_, _ = fmt.Fprintf(file, "## Tables\n\n")

	sorted := make([]schema.Table, len(ws.Tables))
	copy(sorted, ws.Tables)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	g := ws.Graph()
	for _, table := range sorted {
		_, _ = fmt.Fprintf(file, "- [%s](%s), %d rows", table.Name, files[table.ID], table.RowCount)

		outgoing, _ := references(&g, table.ID)
		if len(outgoing) > 0 {
			targets := make([]string, 0, len(outgoing))
			for _, ref := range outgoing {
				targets = append(targets, ref.ParentTable)
			}
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(file, "\n")
	}

	return nil
}

func (w *BundleWriter) writeTableFile(ws schema.Workspace, g *schema.Graph, table schema.Table, name string) error {
	file, err := os.Create(filepath.Join(w.OutputDir, name))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	NewMarkdownFormatter(file).formatTable(ws, g, table, true)
	return nil
}

func (w *BundleWriter) writeDocument(ws schema.Workspace) error {
	file, err := os.Create(filepath.Join(w.OutputDir, documentFile))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	return serializer.Encode(file, serializer.Serialize(ws), serializer.FormatJSON)
}

// tableFiles assigns every table a file name derived from its name.
// Tables sharing a name get a numeric suffix in model order.
func tableFiles(tables []schema.Table) map[string]string {
	files := make(map[string]string, len(tables))
	used := make(map[string]int, len(tables))
	for _, t := range tables {
		base := fileName(t.Name)
		key := strings.ToLower(base)
		used[key]++
		if n := used[key]; n > 1 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		files[t.ID] = base + ".md"
	}
	return files
}

func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || strings.HasPrefix(name, ".") {
		name = "_" + name
	}
	return name
}
