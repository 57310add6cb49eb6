package pgdump

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{"plain", "'plain'"},
		{"O'Brien", "'O''Brien'"},
		{"it''s", "'it''''s'"},
		{true, "TRUE"},
		{false, "FALSE"},
		{ts, "'2024-03-15T09:30:00Z'"},
		{int32(42), "42"},
		{int64(-7), "-7"},
		{float64(3.5), "3.5"},
		{[]byte{0xde, 0xad}, `'\xdead'`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Literal(tt.in), "Literal(%#v)", tt.in)
	}
}

func TestLiteralTimeNormalizedToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, loc)
	assert.Equal(t, "'2024-03-15T09:30:00Z'", Literal(ts))
}

func twoTableTarget() *fakeTarget {
	return &fakeTarget{tables: []fakeTable{
		{
			table: Table{Schema: "public", Name: "orders"},
			columns: []Column{
				{Name: "id", DataType: "integer", Nullable: false},
				{Name: "total", DataType: "numeric", Nullable: true},
			},
			fields: []string{"id", "total"},
			rows: [][]any{
				{int32(1), float64(9.99)},
				{int32(2), float64(15)},
				{int32(3), nil},
			},
		},
		{
			table: Table{Schema: "public", Name: "users"},
			columns: []Column{
				{Name: "id", DataType: "integer", Nullable: false},
				{Name: "name", DataType: "text", Nullable: false},
			},
			fields: []string{"id", "name"},
			rows: [][]any{
				{int32(1), "ada"},
				{int32(2), "grace"},
				{int32(3), "linus"},
				{int32(4), "ken"},
				{int32(5), "rob"},
			},
		},
	}}
}

func TestGenerate_FullBackup(t *testing.T) {
	target := twoTableTarget()
	tables := []Table{{Schema: "public", Name: "orders"}, {Schema: "public", Name: "users"}}

	content, count, err := Generate(context.Background(), target, tables, Options{
		Database:    "appdb",
		Type:        "full",
		Format:      "sql",
		GeneratedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	dump := string(content)
	assert.Contains(t, dump, "-- Database: appdb")
	assert.Equal(t, 2, strings.Count(dump, "CREATE TABLE IF NOT EXISTS"))
	assert.Equal(t, 8, strings.Count(dump, "INSERT INTO"))
	assert.Contains(t, dump, `CREATE TABLE IF NOT EXISTS "public"."orders"`)
	assert.Contains(t, dump, `  "id" integer NOT NULL`)
	assert.Contains(t, dump, `INSERT INTO "public"."users" ("id", "name") VALUES (2, 'grace');`)
	assert.Contains(t, dump, `INSERT INTO "public"."orders" ("id", "total") VALUES (3, NULL);`)
}

func TestGenerate_SchemaScopeHasNoInserts(t *testing.T) {
	target := twoTableTarget()
	tables := []Table{{Schema: "public", Name: "orders"}, {Schema: "public", Name: "users"}}

	content, count, err := Generate(context.Background(), target, tables, Options{
		Database:    "appdb",
		Type:        "schema",
		Format:      "sql",
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	dump := string(content)
	assert.Equal(t, 2, strings.Count(dump, "CREATE TABLE IF NOT EXISTS"))
	assert.NotContains(t, dump, "INSERT INTO")
}

func TestGenerate_TablesScopeHasNoDDL(t *testing.T) {
	target := twoTableTarget()
	tables := []Table{{Schema: "public", Name: "users"}}

	content, count, err := Generate(context.Background(), target, tables, Options{
		Database:    "appdb",
		Type:        "tables",
		Format:      "sql",
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	dump := string(content)
	assert.NotContains(t, dump, "CREATE TABLE")
	assert.Equal(t, 5, strings.Count(dump, "INSERT INTO"))
	assert.NotContains(t, dump, `"public"."orders"`)
}

func TestGenerate_Deterministic(t *testing.T) {
	tables := []Table{{Schema: "public", Name: "orders"}, {Schema: "public", Name: "users"}}
	opts := Options{
		Database:    "appdb",
		Type:        "full",
		Format:      "sql",
		GeneratedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	first, _, err := Generate(context.Background(), twoTableTarget(), tables, opts)
	require.NoError(t, err)
	second, _, err := Generate(context.Background(), twoTableTarget(), tables, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_EmptyTableEmitsNoDataSection(t *testing.T) {
	target := &fakeTarget{tables: []fakeTable{
		{
			table:   Table{Schema: "public", Name: "empty"},
			columns: []Column{{Name: "id", DataType: "integer", Nullable: false}},
			fields:  []string{"id"},
		},
	}}

	content, count, err := Generate(context.Background(), target, []Table{{Schema: "public", Name: "empty"}}, Options{
		Database:    "appdb",
		Type:        "full",
		Format:      "sql",
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotContains(t, string(content), "-- Data for public.empty")
	assert.NotContains(t, string(content), "INSERT INTO")
}
