package db

import (
	"context"
	"fmt"

	"github.com/tordrt/schemadesigner/internal/importer"
)

// PostgresExtractor reads one PostgreSQL schema
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewPostgresExtractor creates an extractor for schemaName ("public" when empty)
func NewPostgresExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// Extract implements Extractor
func (e *PostgresExtractor) Extract(ctx context.Context, tables []string) (importer.RawSchema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return importer.RawSchema{}, fmt.Errorf("failed to get table names: %w", err)
	}

	raw := importer.RawSchema{Name: e.schema}
	for _, tableName := range tableNames {
		cols, err := e.extractColumns(ctx, tableName)
		if err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to extract columns of %s: %w", tableName, err)
		}
		fks, err := e.extractForeignKeys(ctx, tableName)
		if err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to extract foreign keys of %s: %w", tableName, err)
		}
		rows, err := e.estimateRows(ctx, tableName)
		if err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to estimate rows of %s: %w", tableName, err)
		}

		t, rels := buildTable(tableName, rows, cols, fks)
		raw.Tables = append(raw.Tables, t)
		raw.Relationships = append(raw.Relationships, rels...)
	}
	return raw, nil
}

func (e *PostgresExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := e.client.Pool().Query(ctx, query, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// extractColumns reads columns in ordinal order. Enum labels of
// USER-DEFINED types are fetched in a second query.
func (e *PostgresExtractor) extractColumns(ctx context.Context, tableName string) ([]columnInfo, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.character_maximum_length
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := e.client.Pool().Query(ctx, query, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		columns   []columnInfo
		enumTypes []string
		udtNames  []string
	)
	for rows.Next() {
		var (
			col      columnInfo
			dataType string
			udtName  string
		)
		if err := rows.Scan(&col.Name, &dataType, &udtName, &col.MaxLength); err != nil {
			return nil, err
		}
		col.SQLType = postgresType(dataType, udtName)
		if dataType == "USER-DEFINED" {
			enumTypes = append(enumTypes, udtName)
		}
		columns = append(columns, col)
		udtNames = append(udtNames, udtName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(enumTypes) > 0 {
		labels, err := e.extractEnumValues(ctx, enumTypes)
		if err != nil {
			return nil, err
		}
		for i := range columns {
			if values, ok := labels[udtNames[i]]; ok {
				columns[i].SQLType = "enum"
				columns[i].EnumValues = values
			}
		}
	}

	return columns, nil
}

// postgresType picks the type name MapSQLType understands: arrays by
// element type, user-defined types by their udt name
func postgresType(dataType, udtName string) string {
	switch dataType {
	case "ARRAY":
		if len(udtName) > 1 && udtName[0] == '_' {
			return udtName[1:] + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

func (e *PostgresExtractor) extractEnumValues(ctx context.Context, enumTypeNames []string) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1 AND t.typname = ANY($2)
		ORDER BY t.typname, e.enumsortorder
	`

	rows, err := e.client.Pool().Query(ctx, query, e.schema, enumTypeNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var typName, label string
		if err := rows.Scan(&typName, &label); err != nil {
			return nil, err
		}
		result[typName] = append(result[typName], label)
	}

	return result, rows.Err()
}

func (e *PostgresExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := e.client.Pool().Query(ctx, query, e.schema, tableName)
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

// estimateRows reads the planner estimate, which is -1 or 0 for tables
// never analyzed
func (e *PostgresExtractor) estimateRows(ctx context.Context, tableName string) (int64, error) {
	query := `
		SELECT c.reltuples::bigint
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2 AND c.relkind = 'r'
	`

	var estimate int64
	if err := e.client.Pool().QueryRow(ctx, query, e.schema, tableName).Scan(&estimate); err != nil {
		return 0, err
	}
	return estimate, nil
}
