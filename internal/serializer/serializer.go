// Package serializer projects a workspace into the document submitted to
// the remote generation service. Every id is resolved to a current name
// and entries whose references no longer resolve are left out.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/tordrt/schemadesigner/internal/curve"
	"github.com/tordrt/schemadesigner/internal/schema"
)

// Format selects the document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an encoding other than json or yaml
var ErrUnknownFormat = errors.New("unknown document format")

// ParseFormat accepts json, yaml and yml in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Document is the wire format of the generation service
type Document struct {
	Name               string                    `json:"name"`
	Tables             []Table                   `json:"tables"`
	Columns            map[string][]Column       `json:"columns"`
	Relationships      []Relationship            `json:"relationships"`
	OutcomeConstraints []curve.FlatConstraint    `json:"outcome_constraints"`
	OutcomeCurves      []curve.PatternConstraint `json:"outcome_curves"`
}

// Table is a table entry of the document
type Table struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

// Column is a column entry of the document
type Column struct {
	Name               string            `json:"name"`
	Type               schema.ColumnType `json:"type"`
	DistributionParams any               `json:"distribution_params"`
}

// Relationship is a foreign key entry. The parent is the referenced side.
type Relationship struct {
	ParentTable string `json:"parent_table"`
	ParentKey   string `json:"parent_key"`
	ChildTable  string `json:"child_table"`
	ChildKey    string `json:"child_key"`
}

// foreignKey replaces the id-based foreign key params on the wire
type foreignKey struct {
	TargetTable string `json:"target_table,omitempty"`
}

// Serialize builds the document for ws. It has no side effects, and calling
// it again on an unchanged workspace yields a deep-equal document.
//
// Tables sharing a name share one columns entry. Name uniqueness is checked
// by the validation rules before tables reach the model.
func Serialize(ws schema.Workspace) Document {
	g := ws.Graph()
	doc := Document{
		Name:               ws.Name,
		Tables:             make([]Table, 0, len(g.Tables)),
		Columns:            make(map[string][]Column, len(g.Tables)),
		Relationships:      make([]Relationship, 0, len(g.Relationships)),
		OutcomeConstraints: make([]curve.FlatConstraint, 0, len(ws.Constraints)),
		OutcomeCurves:      make([]curve.PatternConstraint, 0, len(ws.Constraints)),
	}

	for _, t := range g.Tables {
		doc.Tables = append(doc.Tables, Table{Name: t.Name, RowCount: t.RowCount})
		cols := doc.Columns[t.Name]
		if cols == nil {
			cols = make([]Column, 0, len(t.Columns))
		}
		for _, c := range t.Columns {
			cols = append(cols, Column{Name: c.Name, Type: c.Type, DistributionParams: distributionParams(&g, c)})
		}
		doc.Columns[t.Name] = cols
	}

	for _, r := range g.Relationships {
		parent, parentKey, ok := g.Column(r.SourceTableID, r.SourceColumnID)
		if !ok {
			continue
		}
		child, childKey, ok := g.Column(r.TargetTableID, r.TargetColumnID)
		if !ok {
			continue
		}
		doc.Relationships = append(doc.Relationships, Relationship{
			ParentTable: parent.Name,
			ParentKey:   parentKey.Name,
			ChildTable:  child.Name,
			ChildKey:    childKey.Name,
		})
	}

	for _, c := range ws.Constraints {
		_, col, ok := g.Column(c.TableID, c.ColumnID)
		if !ok || !col.Type.IsNumeric() {
			continue
		}
		if flat, ok := curve.Flat(c, &g); ok {
			doc.OutcomeConstraints = append(doc.OutcomeConstraints, flat)
		}
		if pattern, ok := curve.Pattern(c, &g); ok {
			doc.OutcomeCurves = append(doc.OutcomeCurves, pattern)
		}
	}
	return doc
}

func distributionParams(g *schema.Graph, c schema.Column) any {
	fk, ok := c.Params.(schema.ForeignKeyParams)
	if !ok {
		if c.Params == nil {
			return schema.DefaultParams(c.Type)
		}
		return c.Params
	}
	if t, found := g.Table(fk.TargetTableID); found {
		return foreignKey{TargetTable: t.Name}
	}
	return foreignKey{}
}

// Encode writes doc to w. YAML output is converted from the JSON encoding
// so both formats carry the same keys.
func Encode(w io.Writer, doc Document, f Format) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	switch f {
	case FormatJSON, "":
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("failed to convert document to yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
