package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/dbvault/internal/pgdump"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// sqlContains matches an Exec/Query by a fragment of its SQL text.
func sqlContains(fragment string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, fragment)
	})
}

// ---------- Mock rows ----------

// mockRows implements pgx.Rows, yielding one scan func per row.
type mockRows struct {
	scanFuncs []func(dest ...any) error
	idx       int
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.idx < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	fn := m.scanFuncs[m.idx]
	m.idx++
	return fn(dest...)
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Fake artifact store ----------

type fakeStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	deleted      []string
	putErr       error
	deleteErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (s *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	s.contentTypes[key] = contentType
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

// ---------- Fake locker ----------

type fakeLocker struct {
	held    map[string]bool
	lockErr error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	if l.lockErr != nil {
		return nil, false, l.lockErr
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() { delete(l.held, key) }, true, nil
}

// ---------- Fake target database ----------

type fakeTableData struct {
	table   pgdump.Table
	columns []pgdump.Column
	fields  []string
	rows    [][]any
}

// fakeTarget implements pgdump.Conn against fixed in-memory data.
type fakeTarget struct {
	tables []fakeTableData
	closed bool
}

func (f *fakeTarget) Close(ctx context.Context) error {
	f.closed = true
	return nil
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
		return newMockRows(scanFuncs...), nil

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
			return newMockRows(scanFuncs...), nil
		}
		return nil, fmt.Errorf("unknown table %s.%s", schema, table)

	case strings.HasPrefix(sql, "SELECT * FROM "):
		for _, ft := range f.tables {
			name := fmt.Sprintf(`SELECT * FROM %q.%q`, ft.table.Schema, ft.table.Name)
			if sql == name {
				return &valuesRows{fields: ft.fields, values: ft.rows}, nil
			}
		}
		return nil, fmt.Errorf("unknown data query: %s", sql)
	}

	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (f *fakeTarget) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &fakeRow{scanFunc: func(dest ...any) error {
		*dest[0].(*string) = "PostgreSQL 16.2 (test)"
		*dest[1].(*string) = "appdb"
		*dest[2].(*string) = "svc"
		return nil
	}}
}

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r *fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// valuesRows implements pgx.Rows for Values()-style iteration over row data.
type valuesRows struct {
	fields []string
	values [][]any
	idx    int
}

func (m *valuesRows) Next() bool {
	if m.idx < len(m.values) {
		m.idx++
		return true
	}
	return false
}

func (m *valuesRows) Values() ([]any, error) {
	return m.values[m.idx-1], nil
}

func (m *valuesRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(m.fields))
	for i, name := range m.fields {
		fds[i] = pgconn.FieldDescription{Name: name}
	}
	return fds
}

func (m *valuesRows) Scan(dest ...any) error    { return nil }
func (m *valuesRows) Err() error                { return nil }
func (m *valuesRows) Close()                    {}
func (m *valuesRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (m *valuesRows) RawValues() [][]byte       { return nil }
func (m *valuesRows) Conn() *pgx.Conn           { return nil }
