package storage

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// QueryKind names one command in the persistence gateway's fixed set —
// the Go enum standing in for the source's QUERY_STUBS dict keys.
type QueryKind string

const (
	QueryCreateSchema   QueryKind = "create_schema"
	QueryCreateTable    QueryKind = "create_table"
	QueryCreateColumn   QueryKind = "create_column"
	QuerySelectRecords  QueryKind = "select_records"
	QuerySelectAll      QueryKind = "select_all"
	QueryInsert         QueryKind = "insert"
	QueryCopyBulk       QueryKind = "copy_bulk"
	QueryDeleteSchema   QueryKind = "delete_schema"
	QueryDeleteTable    QueryKind = "delete_table"
	QueryDeleteRecords  QueryKind = "delete_records"
	QueryListSchemas    QueryKind = "list_schemas"
	QueryListTables     QueryKind = "list_tables"
	QueryListColumns    QueryKind = "list_columns"
	QueryCheckDateRange QueryKind = "check_date_range"
	QueryCheckRecords   QueryKind = "check_records"
)

// rangeColumn is the column name every template's table uses for its
// coverage axis — the broker always stores one timestamp column per
// table (the request's Start of each record), so CheckDateRange and the
// coverage planner both key off this fixed name rather than a
// per-template configurable one.
const rangeColumn = "timestamp"

func quoteIdent(s string) string {
	return pq.QuoteIdentifier(s)
}

func qualifiedTable(schema, table string) string {
	return quoteIdent(schema) + "." + quoteIdent(table)
}

func buildCreateSchema(schema string) (string, []any) {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdent(schema)), nil
}

func buildCreateTable(schema, table string, columns []ColumnDef) (string, []any) {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(c.Name), c.Type.SQLType())
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", qualifiedTable(schema, table), strings.Join(defs, ", ")), nil
}

func buildCreateColumn(schema, table string, col ColumnDef) (string, []any) {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
		qualifiedTable(schema, table), quoteIdent(col.Name), col.Type.SQLType()), nil
}

func buildInsert(schema, table string, columns []string, values []any) (string, []any) {
	idents := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		idents[i] = quoteIdent(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		qualifiedTable(schema, table), strings.Join(idents, ", "), strings.Join(placeholders, ", "))
	return query, values
}

func buildSelectRecords(schema, table string, columns []string, rangeStart, rangeEnd any) (string, []any) {
	idents := make([]string, len(columns))
	for i, c := range columns {
		idents[i] = quoteIdent(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(idents, ", "), qualifiedTable(schema, table))
	var args []any
	if rangeStart != nil && rangeEnd != nil {
		query += fmt.Sprintf(" WHERE %s >= $1 AND %s < $2", quoteIdent(rangeColumn), quoteIdent(rangeColumn))
		args = []any{rangeStart, rangeEnd}
	}
	return query, args
}

func buildSelectAll(schema, table string) (string, []any) {
	return fmt.Sprintf("SELECT * FROM %s", qualifiedTable(schema, table)), nil
}

func buildDeleteSchema(schema string) (string, []any) {
	return fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", quoteIdent(schema)), nil
}

func buildDeleteTable(schema, table string) (string, []any) {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", qualifiedTable(schema, table)), nil
}

func buildDeleteRecords(schema, table string, rangeStart, rangeEnd any) (string, []any) {
	query := fmt.Sprintf("DELETE FROM %s", qualifiedTable(schema, table))
	var args []any
	if rangeStart != nil && rangeEnd != nil {
		query += fmt.Sprintf(" WHERE %s >= $1 AND %s < $2", quoteIdent(rangeColumn), quoteIdent(rangeColumn))
		args = []any{rangeStart, rangeEnd}
	}
	return query, args
}

func buildCheckDateRange(schema, table string) (string, []any) {
	return fmt.Sprintf("SELECT min(%[1]s), max(%[1]s) FROM %s", quoteIdent(rangeColumn), qualifiedTable(schema, table)), nil
}

func buildCheckRecords(schema, table string, rangeStart, rangeEnd any) (string, []any) {
	return fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s >= $1 AND %s < $2)",
		qualifiedTable(schema, table), quoteIdent(rangeColumn), quoteIdent(rangeColumn)), []any{rangeStart, rangeEnd}
}

// The three information_schema introspection queries are fixed strings,
// not identifier-templated, since information_schema's own column names
// are never user-supplied — grounded directly on database.py's
// check_table/check_schema/check_columns stubs, generalized from
// existence checks to listings (SPEC_FULL.md's ListSchemas/ListTables/
// ListColumns).
const (
	listSchemasQuery = `SELECT schema_name FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'public')`
	listTablesQuery  = `SELECT table_name FROM information_schema.tables WHERE table_schema = $1`
	listColumnsQuery = `SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2`
)
