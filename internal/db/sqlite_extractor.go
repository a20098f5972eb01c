package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/schemadesigner/internal/importer"
)

// SQLiteExtractor reads a SQLite database
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a SQLite extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// Extract implements Extractor. SQLite keeps no row estimates, so rows are
// counted.
func (e *SQLiteExtractor) Extract(ctx context.Context, tables []string) (importer.RawSchema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return importer.RawSchema{}, fmt.Errorf("failed to get table names: %w", err)
	}

	var raw importer.RawSchema
	for _, tableName := range tableNames {
		cols, err := e.extractColumns(ctx, tableName)
		if err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to extract columns of %s: %w", tableName, err)
		}
		fks, err := e.extractForeignKeys(ctx, tableName)
		if err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to extract foreign keys of %s: %w", tableName, err)
		}
		var count int64
		if err := e.client.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(tableName)).Scan(&count); err != nil {
			return importer.RawSchema{}, fmt.Errorf("failed to count rows of %s: %w", tableName, err)
		}

		t, rels := buildTable(tableName, count, cols, fks)
		raw.Tables = append(raw.Tables, t)
		raw.Relationships = append(raw.Relationships, rels...)
	}
	return raw, nil
}

func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]columnInfo, error) {
	rows, err := e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []columnInfo
	for rows.Next() {
		var (
			cid          int
			name         string
			colType      string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, columnInfo{Name: name, SQLType: colType})
	}

	return columns, rows.Err()
}

// primaryKey returns the first primary key column of a table, used when a
// foreign key omits the referenced column
func (e *SQLiteExtractor) primaryKey(ctx context.Context, tableName string) (string, error) {
	rows, err := e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return "", err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid          int
			name         string
			colType      string
			notNull      int
			defaultValue sql.NullString
			pkOrder      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pkOrder); err != nil {
			return "", err
		}
		if pkOrder == 1 {
			return name, nil
		}
	}

	return "", rows.Err()
}

func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]foreignKey, error) {
	rows, err := e.client.DB().QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var fks []foreignKey
	for rows.Next() {
		var (
			id, seq                   int
			targetTable, fromCol      string
			toCol                     sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			rows.Close()
			return nil, err
		}
		fks = append(fks, foreignKey{Column: fromCol, TargetTable: targetTable, TargetColumn: toCol.String})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// resolved after the cursor is closed; the pool may hold a single connection
	for i := range fks {
		if fks[i].TargetColumn != "" {
			continue
		}
		pk, err := e.primaryKey(ctx, fks[i].TargetTable)
		if err != nil {
			return nil, err
		}
		fks[i].TargetColumn = pk
	}
	return fks, nil
}
