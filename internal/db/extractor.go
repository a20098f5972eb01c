package db

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tordrt/schemadesigner/internal/importer"
	"github.com/tordrt/schemadesigner/internal/schema"
)

// Extractor reads table structure, foreign keys and row estimates from a
// live database
type Extractor interface {
	// Extract returns the schema of the given tables, or of every table
	// when tables is empty
	Extract(ctx context.Context, tables []string) (importer.RawSchema, error)
}

// foreignKey is one referencing column as reported by the catalog
type foreignKey struct {
	Column       string
	TargetTable  string
	TargetColumn string
}

// columnInfo is one column as reported by the catalog
type columnInfo struct {
	Name       string
	SQLType    string
	MaxLength  *int
	EnumValues []string
}

// buildTable assembles a raw table. Referencing columns become foreign
// keys pointing at their target table; each foreign key is also returned
// as a relationship with the referenced side as parent.
func buildTable(name string, rowCount int64, cols []columnInfo, fks []foreignKey) (importer.RawTable, []importer.RawRelationship) {
	targets := make(map[string]string, len(fks))
	for _, fk := range fks {
		targets[fk.Column] = fk.TargetTable
	}

	t := importer.RawTable{Name: name, RowCount: rowCount}
	for _, c := range cols {
		rc := importer.RawColumn{Name: c.Name, Type: string(importer.MapSQLType(c.SQLType))}
		if target, ok := targets[c.Name]; ok {
			rc.Type = string(schema.TypeForeignKey)
			rc.References = target
		} else {
			rc.Params = columnParams(c)
		}
		t.Columns = append(t.Columns, rc)
	}

	rels := make([]importer.RawRelationship, 0, len(fks))
	for _, fk := range fks {
		rels = append(rels, importer.RawRelationship{
			ParentTable: fk.TargetTable,
			ParentKey:   fk.TargetColumn,
			ChildTable:  name,
			ChildKey:    fk.Column,
		})
	}
	return t, rels
}

// columnParams derives generation parameters the catalog can tell us about:
// enum labels and text length limits. Everything else keeps the defaults.
func columnParams(c columnInfo) json.RawMessage {
	var p schema.Params
	switch importer.MapSQLType(c.SQLType) {
	case schema.TypeCategorical:
		if len(c.EnumValues) > 0 {
			p = schema.CategoricalParams{Choices: c.EnumValues}
		}
	case schema.TypeText:
		if c.MaxLength != nil && *c.MaxLength > 0 {
			text := schema.DefaultParams(schema.TypeText).(schema.TextParams)
			text.MaxLength = min(text.MaxLength, *c.MaxLength)
			text.MinLength = min(text.MinLength, text.MaxLength)
			p = text
		}
	}
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return data
}

// parseEnumValues splits a MySQL or SQLite enum declaration such as
// enum('a','b') into its labels
func parseEnumValues(columnType string) []string {
	start := strings.Index(columnType, "(")
	end := strings.LastIndex(columnType, ")")
	if start == -1 || end == -1 || start >= end {
		return nil
	}

	var values []string
	for _, part := range strings.Split(columnType[start+1:end], ",") {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && part[0] == '\'' && part[len(part)-1] == '\'' {
			part = part[1 : len(part)-1]
		}
		values = append(values, part)
	}
	return values
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
