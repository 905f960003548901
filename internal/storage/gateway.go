package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hedgepy/broker/internal/dbpool"
	"github.com/hedgepy/broker/internal/metrics"
	"github.com/hedgepy/broker/internal/wire"
	"github.com/lib/pq"
)

// Request parameterizes one Query call. Only the fields relevant to the
// chosen QueryKind need be set; Gateway.Query ignores the rest.
type Request struct {
	Schema     string
	Table      string
	Columns    []string
	ColumnDefs []ColumnDef
	Values     []any
	BulkRows   [][]any
	RangeStart any
	RangeEnd   any
}

// Gateway is the persistence layer's sole entry point: every command the
// broker issues against the relational store — schema/table/column DDL,
// inserts, bulk copies, selects, deletes, and information_schema
// introspection — flows through Query or Struct.
type Gateway struct {
	pool    *dbpool.SharedPool
	metrics *metrics.Metrics
}

// New wraps an existing shared connection pool. The pool is not owned by
// Gateway — closing it is the caller's responsibility except where the
// failure policy below applies.
func New(pool *dbpool.SharedPool, m *metrics.Metrics) *Gateway {
	return &Gateway{pool: pool, metrics: m}
}

// Query dispatches one command by kind, returning decoded rows for
// read-shaped kinds (SelectRecords, SelectAll, ListSchemas, ListTables,
// ListColumns, CheckDateRange, CheckRecords) and nil rows for DDL/write
// kinds. On any error the pool is closed and the error re-raised
// (spec.md §4.7's failure policy) — the scheduler/planner is the outer
// retry caller, not this layer.
func (g *Gateway) Query(ctx context.Context, which QueryKind, req Request) ([][]any, error) {
	rows, err := g.dispatch(ctx, which, req)
	if err != nil {
		g.pool.Close()
		return nil, fmt.Errorf("storage: %s: %w", which, err)
	}
	return rows, nil
}

func (g *Gateway) dispatch(ctx context.Context, which QueryKind, req Request) ([][]any, error) {
	db := g.pool.DB()
	start := time.Now()
	defer func() {
		if g.metrics != nil {
			g.metrics.ObserveDBQuery(string(which), req.Schema+"."+req.Table, time.Since(start))
		}
	}()

	switch which {
	case QueryCreateSchema:
		query, args := buildCreateSchema(req.Schema)
		_, err := db.ExecContext(ctx, query, args...)
		return nil, err

	case QueryCreateTable:
		query, args := buildCreateTable(req.Schema, req.Table, req.ColumnDefs)
		_, err := db.ExecContext(ctx, query, args...)
		return nil, err

	case QueryCreateColumn:
		if len(req.ColumnDefs) != 1 {
			return nil, fmt.Errorf("create_column requires exactly one ColumnDef, got %d", len(req.ColumnDefs))
		}
		query, args := buildCreateColumn(req.Schema, req.Table, req.ColumnDefs[0])
		_, err := db.ExecContext(ctx, query, args...)
		return nil, err

	case QueryInsert:
		query, args := buildInsert(req.Schema, req.Table, req.Columns, req.Values)
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			if !isMissingRelation(err) {
				return nil, err
			}
			// Idempotent create-then-retry: a template's table may not
			// exist yet the first time its endpoint resolves — create
			// schema/table/columns from the insert's own column set and
			// retry once, rather than requiring a separate provisioning
			// step ahead of every first write.
			if err := g.ensureTable(ctx, req); err != nil {
				return nil, err
			}
			if _, err := db.ExecContext(ctx, query, args...); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case QueryCopyBulk:
		return nil, g.copyBulk(ctx, req)

	case QuerySelectRecords:
		query, args := buildSelectRecords(req.Schema, req.Table, req.Columns, req.RangeStart, req.RangeEnd)
		return queryRows(ctx, db, query, args...)

	case QuerySelectAll:
		query, args := buildSelectAll(req.Schema, req.Table)
		return queryRows(ctx, db, query, args...)

	case QueryDeleteSchema:
		query, args := buildDeleteSchema(req.Schema)
		_, err := db.ExecContext(ctx, query, args...)
		return nil, err

	case QueryDeleteTable:
		query, args := buildDeleteTable(req.Schema, req.Table)
		_, err := db.ExecContext(ctx, query, args...)
		return nil, err

	case QueryDeleteRecords:
		query, args := buildDeleteRecords(req.Schema, req.Table, req.RangeStart, req.RangeEnd)
		_, err := db.ExecContext(ctx, query, args...)
		return nil, err

	case QueryListSchemas:
		return queryRows(ctx, db, listSchemasQuery)

	case QueryListTables:
		return queryRows(ctx, db, listTablesQuery, req.Schema)

	case QueryListColumns:
		return queryRows(ctx, db, listColumnsQuery, req.Schema, req.Table)

	case QueryCheckDateRange:
		query, args := buildCheckDateRange(req.Schema, req.Table)
		return queryRows(ctx, db, query, args...)

	case QueryCheckRecords:
		query, args := buildCheckRecords(req.Schema, req.Table, req.RangeStart, req.RangeEnd)
		return queryRows(ctx, db, query, args...)

	default:
		return nil, fmt.Errorf("unknown query kind %q", which)
	}
}

// ensureTable creates req's schema, table, and columns (derived from its
// own Columns/Values when ColumnDefs is empty) idempotently, used as the
// recovery path for an insert into a table that doesn't exist yet.
func (g *Gateway) ensureTable(ctx context.Context, req Request) error {
	db := g.pool.DB()
	schemaQuery, _ := buildCreateSchema(req.Schema)
	if _, err := db.ExecContext(ctx, schemaQuery); err != nil {
		return err
	}

	defs := req.ColumnDefs
	if len(defs) == 0 {
		defs = make([]ColumnDef, len(req.Columns))
		for i, c := range req.Columns {
			defs[i] = ColumnDef{Name: c, Type: ColText}
		}
	}
	tableQuery, _ := buildCreateTable(req.Schema, req.Table, defs)
	_, err := db.ExecContext(ctx, tableQuery)
	return err
}

// copyBulk streams req.BulkRows into req.Schema.req.Table via
// pq.CopyIn — the teacher's driver's bulk-load path, the Go analog of
// the source's `COPY {}.{} ({}) FROM STDIN` stub.
func (g *Gateway) copyBulk(ctx context.Context, req Request) error {
	db := g.pool.DB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(req.Schema, req.Table, req.Columns...))
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, row := range req.BulkRows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Struct builds the coverage planner's sole input: for every schema/table
// this gateway owns, its columns and (if it carries the conventional
// timestamp column) the date range actually stored.
func (g *Gateway) Struct(ctx context.Context) (map[TableKey]CoverageRecord, error) {
	schemaRows, err := g.Query(ctx, QueryListSchemas, Request{})
	if err != nil {
		return nil, err
	}

	out := make(map[TableKey]CoverageRecord)
	for _, sr := range schemaRows {
		schema, ok := sr[0].(string)
		if !ok {
			continue
		}
		tableRows, err := g.Query(ctx, QueryListTables, Request{Schema: schema})
		if err != nil {
			return nil, err
		}
		for _, tr := range tableRows {
			table, ok := tr[0].(string)
			if !ok {
				continue
			}
			rec, err := g.tableCoverage(ctx, schema, table)
			if err != nil {
				return nil, err
			}
			out[TableKey{Schema: schema, Table: table}] = rec
		}
	}
	return out, nil
}

func (g *Gateway) tableCoverage(ctx context.Context, schema, table string) (CoverageRecord, error) {
	colRows, err := g.Query(ctx, QueryListColumns, Request{Schema: schema, Table: table})
	if err != nil {
		return CoverageRecord{}, err
	}
	columns := make([]string, 0, len(colRows))
	hasRangeColumn := false
	for _, cr := range colRows {
		name, _ := cr[0].(string)
		columns = append(columns, name)
		if name == rangeColumn {
			hasRangeColumn = true
		}
	}

	rec := CoverageRecord{Columns: columns}
	if !hasRangeColumn {
		return rec, nil
	}

	rangeRows, err := g.Query(ctx, QueryCheckDateRange, Request{Schema: schema, Table: table})
	if err != nil {
		return CoverageRecord{}, err
	}
	if len(rangeRows) == 1 && len(rangeRows[0]) == 2 {
		if start, ok := rangeRows[0][0].(time.Time); ok {
			rec.RangeStart = wire.NewDateTime(start)
			rec.HasRange = true
		}
		if end, ok := rangeRows[0][1].(time.Time); ok {
			rec.RangeEnd = wire.NewDateTime(end)
		}
	}
	return rec, nil
}

// queryRows runs query and scans every row generically — the gateway has
// no fixed result shape to scan into, since callers range from
// information_schema listings to arbitrary endpoint tables.
func queryRows(ctx context.Context, db *sql.DB, query string, args ...any) ([][]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	return out, rows.Err()
}

// isMissingRelation reports whether err is Postgres's undefined_table
// SQLSTATE (42P01) — lib/pq's signal that the target relation doesn't
// exist yet.
func isMissingRelation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == "42P01"
}
