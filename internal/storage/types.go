// Package storage implements the persistence gateway: typed command
// objects that render parameterized SQL against a Postgres-compatible
// relational store, grounded on
// original_source/bases/database.py's QUERY_STUBS table and on
// DBAShand-cdc-sink-redshift's CREATE TABLE/information_schema idiom for
// the concrete Go rendering of the same commands.
package storage

import (
	"github.com/hedgepy/broker/internal/wire"
)

// ColumnType is this package's own DB_TYPE vocabulary — a superset of
// wire.FieldType restricted to what the relational store can declare a
// column as. Kept distinct from wire.FieldType because storage needs a
// "bool"/"null" distinction the wire layer doesn't (nullability is a
// storage concern, not a wire one).
type ColumnType string

const (
	ColText      ColumnType = "text"
	ColBool      ColumnType = "bool"
	ColInt       ColumnType = "int"
	ColFloat     ColumnType = "float"
	ColDate      ColumnType = "date"
	ColTime      ColumnType = "time"
	ColTimestamp ColumnType = "timestamp"
	ColInterval  ColumnType = "interval"
)

// SQLType renders the Postgres type name a CREATE TABLE/ALTER TABLE
// statement declares for this ColumnType.
func (c ColumnType) SQLType() string {
	switch c {
	case ColText:
		return "text"
	case ColBool:
		return "boolean"
	case ColInt:
		return "bigint"
	case ColFloat:
		return "double precision"
	case ColDate:
		return "date"
	case ColTime:
		return "time"
	case ColTimestamp:
		return "timestamptz"
	case ColInterval:
		return "interval"
	default:
		return "text"
	}
}

// ColumnTypeFor maps a wire.FieldType to the ColumnType a table storing
// that field declares — the Go equivalent of the source's PY_TO_DB table.
func ColumnTypeFor(ft wire.FieldType) ColumnType {
	switch ft {
	case wire.Bool:
		return ColBool
	case wire.Int:
		return ColInt
	case wire.Float:
		return ColFloat
	case wire.Date:
		return ColDate
	case wire.Time:
		return ColTime
	case wire.Timestamp:
		return ColTimestamp
	case wire.Interval:
		return ColInterval
	default:
		return ColText
	}
}

// ColumnDef is one column's name and declared type, the unit
// CreateTable/CreateColumn commands take.
type ColumnDef struct {
	Name string
	Type ColumnType
}

// TableKey identifies one vendor/endpoint pair's storage location: schema
// = vendor name, table = endpoint name, per the source's
// parse_response (schema, table = vendor_name, endpoint_name).
type TableKey struct {
	Schema string
	Table  string
}

// CoverageRecord summarizes what's actually stored for one TableKey: the
// columns present and, if the table carries a timestamp column, the date
// range covered. This is the coverage planner's sole input (§4.5).
type CoverageRecord struct {
	Columns    []string
	HasRange   bool
	RangeStart wire.DateTime
	RangeEnd   wire.DateTime
}
