package exportsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-tabular-export/export"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func exec(t *testing.T, db *sql.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func seedTestTable(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	quoted := QuoteIdent(`"`, table)
	exec(t, db,
		"CREATE TABLE "+quoted+" (id INTEGER PRIMARY KEY, name TEXT, value REAL)",
		"INSERT INTO "+quoted+" (id, name, value) VALUES (1, 'Test 1', 100.5), (2, 'Test 2', 200.75), (3, 'Test 3', NULL)",
	)
}

func TestSource_TableExists(t *testing.T) {
	db := newTestDB(t)
	seedTestTable(t, db, "test_table")
	exec(t, db, `CREATE VIEW test_view AS SELECT * FROM test_table`)
	source := NewSource(db, SQLite{})
	ctx := context.Background()

	cases := map[string]bool{
		"test_table": true,
		"TEST_TABLE": false,
		"test_view":  false,
		"missing":    false,
	}
	for table, want := range cases {
		got, err := source.TableExists(ctx, table)
		if err != nil {
			t.Fatalf("%s: %v", table, err)
		}
		if got != want {
			t.Fatalf("%s: expected %t, got %t", table, want, got)
		}
	}
}

func TestSource_ScanTable(t *testing.T) {
	db := newTestDB(t)
	seedTestTable(t, db, "test_table")
	source := NewSource(db, SQLite{})

	schema, iter, err := source.ScanTable(context.Background(), "test_table")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	rows, err := export.CollectRows(context.Background(), iter)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if err := iter.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := strings.Join(schema.Names(), ","); got != "id,name,value" {
		t.Fatalf("unexpected columns %q", got)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if !rows[1][2].Equal(export.Float(200.75)) {
		t.Fatalf("expected 200.75, got %v", rows[1][2])
	}
	if !rows[0][0].Equal(export.Int(1)) || !rows[0][1].Equal(export.Text("Test 1")) {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if !rows[2][2].IsNull() {
		t.Fatalf("expected null value, got %v", rows[2][2])
	}
}

func TestExportTable_SQLite(t *testing.T) {
	db := newTestDB(t)
	seedTestTable(t, db, "test_table")
	source := NewSource(db, SQLite{})
	ctx := context.Background()

	out, err := export.ExportTableAsCSV(ctx, source, "test_table")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	want := "id,name,value\n1,Test 1,100.5\n2,Test 2,200.75\n3,Test 3,\n"
	if string(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}

	out, err = export.ExportTableAsJSON(ctx, source, "test_table")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	var payload []map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(payload))
	}
	if payload[1]["value"] != 200.75 || payload[0]["name"] != "Test 1" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if value, ok := payload[2]["value"]; !ok || value != nil {
		t.Fatalf("expected explicit null, got %v", value)
	}
}

func TestExportTable_SQLiteEmptyTable(t *testing.T) {
	db := newTestDB(t)
	exec(t, db, `CREATE TABLE empty_table (id INTEGER, name TEXT)`)
	source := NewSource(db, SQLite{})

	out, err := export.ExportTableAsCSV(context.Background(), source, "empty_table")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if string(out) != "id,name\n" {
		t.Fatalf("expected header only, got %q", out)
	}

	out, err = export.ExportTableAsJSON(context.Background(), source, "empty_table")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("expected [], got %q", out)
	}
}

func TestExportTable_SQLiteSpecialName(t *testing.T) {
	db := newTestDB(t)
	seedTestTable(t, db, "special-table-name")
	exec(t, db,
		`CREATE TABLE special (id INTEGER PRIMARY KEY, name TEXT, value REAL)`,
		`INSERT INTO special (id, name, value) VALUES (9, 'Other', 1.25)`,
	)
	source := NewSource(db, SQLite{})

	out, err := export.ExportTableAsJSON(context.Background(), source, "special-table-name")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	var payload []map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(payload))
	}
	for i, row := range payload {
		if want := float64(i + 1); row["id"] != want {
			t.Fatalf("row %d: expected id %v, got %v", i, want, row["id"])
		}
		if want := fmt.Sprintf("Test %d", i+1); row["name"] != want {
			t.Fatalf("row %d: expected name %q, got %v", i, want, row["name"])
		}
	}

	out, err = export.ExportTableAsCSV(context.Background(), source, "special")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if string(out) != "id,name,value\n9,Other,1.25\n" {
		t.Fatalf("unexpected csv %q", out)
	}
}

func TestExportTable_SQLiteTemporalColumns(t *testing.T) {
	db := newTestDB(t)
	exec(t, db,
		`CREATE TABLE events (id INTEGER PRIMARY KEY, created_date DATE, stamp DATETIME, flag BOOLEAN)`,
		`INSERT INTO events (id, created_date, stamp, flag) VALUES (1, '2024-01-03', '2024-01-03 10:00:00', 1), (2, '2024-02-29', '2024-02-29 23:59:59.25', 0)`,
	)
	source := NewSource(db, SQLite{})

	out, err := export.ExportTableAsCSV(context.Background(), source, "events")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	want := "id,created_date,stamp,flag\n1,2024-01-03,2024-01-03 10:00:00,1\n2,2024-02-29,2024-02-29 23:59:59.25,0\n"
	if string(out) != want {
		t.Fatalf("unexpected csv %q", out)
	}

	out, err = export.ExportTableAsJSON(context.Background(), source, "events")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	var payload []map[string]any
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[0]["created_date"] != "2024-01-03" || payload[0]["stamp"] != "2024-01-03 10:00:00" {
		t.Fatalf("unexpected temporal values %v", payload[0])
	}
}

func TestExportTable_SQLiteNotFound(t *testing.T) {
	db := newTestDB(t)
	source := NewSource(db, SQLite{})

	_, err := export.ExportTableAsCSV(context.Background(), source, "nonexistent_table")
	var notFound *export.TableNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *TableNotFoundError, got %T %v", err, err)
	}
	if !strings.Contains(err.Error(), "nonexistent_table") {
		t.Fatalf("expected table name in message, got %q", err.Error())
	}
}

func TestSource_RequiresHandle(t *testing.T) {
	_, err := (&Source{Dialect: SQLite{}}).TableExists(context.Background(), "t")
	if export.KindFromError(err) != export.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, "oracle", "dsn"); export.KindFromError(err) != export.KindValidation {
		t.Fatalf("expected validation error for unknown driver, got %v", err)
	}

	source, err := Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := source.Dialect.(SQLite); !ok {
		t.Fatalf("expected sqlite dialect, got %T", source.Dialect)
	}
	if err := source.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
