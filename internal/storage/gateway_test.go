package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hedgepy/broker/internal/dbpool"
	"github.com/lib/pq"
)

func newTestGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(dbpool.NewFromDB(db), nil), mock
}

func TestQueryInsertHappyPath(t *testing.T) {
	g, mock := newTestGateway(t)
	mock.ExpectExec(`INSERT INTO "fred"\."series" \("series_id", "value"\) VALUES \(\$1, \$2\)`).
		WithArgs("GDP", 100.0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := g.Query(context.Background(), QueryInsert, Request{
		Schema:  "fred",
		Table:   "series",
		Columns: []string{"series_id", "value"},
		Values:  []any{"GDP", 100.0},
	})
	if err != nil {
		t.Fatalf("Query(Insert) error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryInsertRetriesOnMissingTable(t *testing.T) {
	g, mock := newTestGateway(t)

	insertSQL := `INSERT INTO "fred"\."series" \("series_id"\) VALUES \(\$1\)`
	mock.ExpectExec(insertSQL).
		WithArgs("GDP").
		WillReturnError(&pq.Error{Code: "42P01", Message: "relation \"fred.series\" does not exist"})
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "fred"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "fred"\."series"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertSQL).
		WithArgs("GDP").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := g.Query(context.Background(), QueryInsert, Request{
		Schema:  "fred",
		Table:   "series",
		Columns: []string{"series_id"},
		Values:  []any{"GDP"},
	})
	if err != nil {
		t.Fatalf("Query(Insert) error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestQueryFailurePolicyClosesPool(t *testing.T) {
	g, mock := newTestGateway(t)
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "broken"`).
		WillReturnError(context.DeadlineExceeded)

	if _, err := g.Query(context.Background(), QueryCreateSchema, Request{Schema: "broken"}); err == nil {
		t.Fatal("expected an error from a failing query")
	}

	// A second call on the now-closed pool must also fail, confirming the
	// failure policy actually closed the underlying *sql.DB.
	if _, err := g.Query(context.Background(), QueryCreateSchema, Request{Schema: "anything"}); err == nil {
		t.Error("expected the pool to remain closed after a prior failure")
	}
}

func TestBuildSelectRecordsWithRange(t *testing.T) {
	query, args := buildSelectRecords("fred", "series", []string{"value"}, "2020-01-01", "2020-02-01")
	want := `SELECT "value" FROM "fred"."series" WHERE "timestamp" >= $1 AND "timestamp" < $2`
	if query != want {
		t.Errorf("buildSelectRecords() query = %q, want %q", query, want)
	}
	if len(args) != 2 {
		t.Errorf("buildSelectRecords() args = %v, want 2 elements", args)
	}
}

func TestColumnTypeSQLType(t *testing.T) {
	cases := map[ColumnType]string{
		ColText:      "text",
		ColBool:      "boolean",
		ColInt:       "bigint",
		ColFloat:     "double precision",
		ColTimestamp: "timestamptz",
	}
	for ct, want := range cases {
		if got := ct.SQLType(); got != want {
			t.Errorf("%s.SQLType() = %q, want %q", ct, got, want)
		}
	}
}
