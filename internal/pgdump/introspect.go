package pgdump

import (
	"context"
	"fmt"
	"slices"
)

// Table identifies one user table.
type Table struct {
	Schema string
	Name   string
}

func (t Table) Qualified() string {
	return t.Schema + "." + t.Name
}

// Column describes one column of a table, in declaration order.
type Column struct {
	Name     string
	DataType string
	Nullable bool
	Default  *string
}

// Scope restricts which tables a backup covers.
type Scope struct {
	// Type is one of full, schema, tables.
	Type string
	// Schemas, when non-empty, keeps only tables in the listed schemas.
	Schemas []string
	// Tables, when non-empty and Type is "tables", keeps only the listed
	// "schema.table" entries.
	Tables []string
}

// ListTables enumerates user tables excluding system catalogs, ordered by
// (schema, table) so dump output is deterministic, then applies the scope
// filters.
func ListTables(ctx context.Context, q Querier, scope Scope) ([]Table, error) {
	rows, err := q.Query(ctx,
		`SELECT schemaname, tablename
		 FROM pg_tables
		 WHERE schemaname NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY schemaname, tablename`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return FilterTables(tables, scope), nil
}

// FilterTables applies the scope's schema and table allow-lists.
func FilterTables(tables []Table, scope Scope) []Table {
	filtered := tables
	if len(scope.Schemas) > 0 {
		filtered = slices.DeleteFunc(slices.Clone(filtered), func(t Table) bool {
			return !slices.Contains(scope.Schemas, t.Schema)
		})
	}
	if scope.Type == "tables" && len(scope.Tables) > 0 {
		filtered = slices.DeleteFunc(slices.Clone(filtered), func(t Table) bool {
			return !slices.Contains(scope.Tables, t.Qualified())
		})
	}
	return filtered
}

// TableColumns returns the column descriptors for one table in ordinal order.
func TableColumns(ctx context.Context, q Querier, table Table) ([]Column, error) {
	rows, err := q.Query(ctx,
		`SELECT column_name, data_type, is_nullable, column_default
		 FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2
		 ORDER BY ordinal_position`,
		table.Schema, table.Name)
	if err != nil {
		return nil, fmt.Errorf("columns for %s: %w", table.Qualified(), err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		var nullable string
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &c.Default); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Nullable = nullable != "NO"
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	return columns, nil
}
