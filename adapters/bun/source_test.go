package exportbun

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/goliatone/go-tabular-export/export"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type itemModel struct {
	bun.BaseModel `bun:"table:special-table-name"`

	ID    int64           `bun:"id,pk"`
	Name  string          `bun:"name"`
	Value sql.NullFloat64 `bun:"value,type:real"`
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	ctx := context.Background()
	if _, err := db.NewDropTable().Model((*itemModel)(nil)).IfExists().Exec(ctx); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	if _, err := db.NewCreateTable().Model((*itemModel)(nil)).Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}
	items := []itemModel{
		{ID: 1, Name: "Test 1", Value: sql.NullFloat64{Float64: 100.5, Valid: true}},
		{ID: 2, Name: "Test 2", Value: sql.NullFloat64{Float64: 200.75, Valid: true}},
		{ID: 3, Name: "Test 3"},
	}
	if _, err := db.NewInsert().Model(&items).Exec(ctx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return db
}

func TestSource_ExportTable(t *testing.T) {
	db := newTestDB(t)
	source := NewSource(db)
	ctx := context.Background()

	out, err := export.ExportTableAsCSV(ctx, source, "special-table-name")
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	want := "id,name,value\n1,Test 1,100.5\n2,Test 2,200.75\n3,Test 3,\n"
	if string(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}

	out, err = export.ExportTableAsJSON(ctx, source, "special-table-name")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	if len(out) == 0 || out[0] != '[' {
		t.Fatalf("expected json array, got %q", out)
	}
}

func TestSource_TableNotFound(t *testing.T) {
	db := newTestDB(t)
	source := NewSource(db)

	exists, err := source.TableExists(context.Background(), "special_table_name")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("expected exact name match only")
	}

	_, err = export.ExportTableAsJSON(context.Background(), source, "nonexistent_table")
	var notFound *export.TableNotFoundError
	if !errors.As(err, &notFound) || notFound.Table != "nonexistent_table" {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestSource_RequiresDB(t *testing.T) {
	_, err := (&Source{}).TableExists(context.Background(), "t")
	if export.KindFromError(err) != export.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTableExistsQuery(t *testing.T) {
	for _, name := range []dialect.Name{dialect.SQLite, dialect.PG, dialect.MySQL} {
		if _, err := tableExistsQuery(name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if _, err := tableExistsQuery(dialect.MSSQL); err == nil {
		t.Fatalf("expected unsupported dialect error")
	}
}
