package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/schemadesigner/internal/importer"
)

// MySQLExtractor reads one MySQL database
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLExtractor creates an extractor for the database schemaName
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// Extract implements Extractor
func (e *MySQLExtractor) Extract(ctx context.Context, tables []string) (importer.RawSchema, error) {
	estimates, err := e.getTables(ctx)
	if err != nil {
		return importer.RawSchema{}, fmt.Errorf("failed to get table names: %w", err)
	}

	tableNames := tables
	if len(tableNames) == 0 {
		for _, t := range estimates {
			tableNames = append(tableNames, t.name)
		}
	}
	rowsByTable := make(map[string]int64, len(estimates))
	for _, t := range estimates {
		rowsByTable[t.name] = t.rows
	}

	raw := importer.RawSchema{Name: e.schemaName}
	for _, tableName := range tableNames {
		cols, err := e.extractColumns(ctx, tableName)
		if err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to extract columns of %s: %w", tableName, err)
		}
		fks, err := e.extractForeignKeys(ctx, tableName)
		if err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to extract foreign keys of %s: %w", tableName, err)
		}

		t, rels := buildTable(tableName, rowsByTable[tableName], cols, fks)
		raw.Tables = append(raw.Tables, t)
		raw.Relationships = append(raw.Relationships, rels...)
	}
	return raw, nil
}

type tableEstimate struct {
	name string
	rows int64
}

// getTables lists base tables with the row estimate InnoDB keeps in
// information_schema
func (e *MySQLExtractor) getTables(ctx context.Context) ([]tableEstimate, error) {
	query := `
		SELECT table_name, table_rows
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []tableEstimate
	for rows.Next() {
		var (
			t        tableEstimate
			estimate sql.NullInt64
		)
		if err := rows.Scan(&t.name, &estimate); err != nil {
			return nil, err
		}
		t.rows = estimate.Int64
		tables = append(tables, t)
	}

	return tables, rows.Err()
}

func (e *MySQLExtractor) extractColumns(ctx context.Context, tableName string) ([]columnInfo, error) {
	query := `
		SELECT
			c.column_name,
			c.column_type,
			c.data_type,
			c.character_maximum_length
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []columnInfo
	for rows.Next() {
		var (
			col        columnInfo
			columnType string
			dataType   string
			maxLength  sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &columnType, &dataType, &maxLength); err != nil {
			return nil, err
		}

		// column_type keeps tinyint(1) and enum labels, data_type does not
		col.SQLType = columnType
		if maxLength.Valid {
			n := int(maxLength.Int64)
			col.MaxLength = &n
		}
		if strings.EqualFold(dataType, "enum") {
			col.SQLType = "enum"
			col.EnumValues = parseEnumValues(columnType)
		}
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (e *MySQLExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.DB().QueryContext(ctx, query, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.Column, &fk.TargetTable, &fk.TargetColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}
