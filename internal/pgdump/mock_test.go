package pgdump

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------- Mock rows ----------

// mockRows implements pgx.Rows over in-memory data. Scan-style consumers get
// one scan func per row; Values-style consumers get the raw value slices.
type mockRows struct {
	fields    []pgconn.FieldDescription
	scanFuncs []func(dest ...any) error
	values    [][]any
	idx       int
	err       error
}

func (m *mockRows) rowCount() int {
	if len(m.values) > 0 {
		return len(m.values)
	}
	return len(m.scanFuncs)
}

func (m *mockRows) Next() bool {
	if m.idx < m.rowCount() {
		m.idx++
		return true
	}
	return false
}

func (m *mockRows) Scan(dest ...any) error {
	return m.scanFuncs[m.idx-1](dest...)
}

func (m *mockRows) Values() ([]any, error) {
	return m.values[m.idx-1], nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return m.fields }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Mock row ----------

type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Fake target database ----------

type fakeTable struct {
	table   Table
	columns []Column
	fields  []string
	rows    [][]any
}

// fakeTarget implements Querier against a fixed in-memory schema.
type fakeTarget struct {
	tables []fakeTable
	info   ServerInfo
}

func (f *fakeTarget) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	switch {
	case strings.Contains(sql, "pg_tables"):
		var scanFuncs []func(dest ...any) error
		for _, ft := range f.tables {
			t := ft.table
			scanFuncs = append(scanFuncs, func(dest ...any) error {
				*dest[0].(*string) = t.Schema
				*dest[1].(*string) = t.Name
				return nil
			})
		}
		return &mockRows{scanFuncs: scanFuncs}, nil

	case strings.Contains(sql, "information_schema.columns"):
		schema, table := args[0].(string), args[1].(string)
		for _, ft := range f.tables {
			if ft.table.Schema != schema || ft.table.Name != table {
				continue
			}
			var scanFuncs []func(dest ...any) error
			for _, col := range ft.columns {
				c := col
				scanFuncs = append(scanFuncs, func(dest ...any) error {
					*dest[0].(*string) = c.Name
					*dest[1].(*string) = c.DataType
					if c.Nullable {
						*dest[2].(*string) = "YES"
					} else {
						*dest[2].(*string) = "NO"
					}
					*dest[3].(**string) = c.Default
					return nil
				})
			}
			return &mockRows{scanFuncs: scanFuncs}, nil
		}
		return nil, fmt.Errorf("unknown table %s.%s", schema, table)

	case strings.HasPrefix(sql, "SELECT * FROM "):
		for _, ft := range f.tables {
			if sql == "SELECT * FROM "+quoteTable(ft.table) {
				fields := make([]pgconn.FieldDescription, len(ft.fields))
				for i, name := range ft.fields {
					fields[i] = pgconn.FieldDescription{Name: name}
				}
				return &mockRows{fields: fields, values: ft.rows}, nil
			}
		}
		return nil, fmt.Errorf("unknown data query: %s", sql)
	}

	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (f *fakeTarget) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &mockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*string) = f.info.Version
		*dest[1].(*string) = f.info.Database
		*dest[2].(*string) = f.info.User
		return nil
	}}
}
