package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXRenderer_WritesRows(t *testing.T) {
	buf := &bytes.Buffer{}
	iter := NewSliceIterator([]Row{
		{Int(1), Text("alice"), Float(12.5), Null(), Bool(true)},
	})

	schema := Schema{Columns: []Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "name", Label: "Full Name", Type: "TEXT"},
		{Name: "amount", Type: "REAL"},
		{Name: "note", Type: "TEXT"},
		{Name: "active", Type: "BOOLEAN"},
	}}

	stats, err := XLSXRenderer{}.Render(context.Background(), schema, iter, buf, RenderOptions{
		XLSX: XLSXOptions{IncludeHeaders: true, HeadersSet: true, SheetName: "users"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if stats.Rows != 1 {
		t.Fatalf("expected 1 row, got %d", stats.Rows)
	}
	if stats.Bytes == 0 || stats.Bytes != int64(buf.Len()) {
		t.Fatalf("expected byte count %d, got %d", buf.Len(), stats.Bytes)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if got := file.GetSheetName(0); got != "users" {
		t.Fatalf("expected sheet users, got %q", got)
	}
	rows, err := file.GetRows("users")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + data rows, got %d", len(rows))
	}
	if rows[0][1] != "Full Name" {
		t.Fatalf("expected header label, got %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "alice" || rows[1][2] != "12.5" || rows[1][3] != "" {
		t.Fatalf("unexpected data row %v", rows[1])
	}
}

func TestXLSXRenderer_RowShapeMismatch(t *testing.T) {
	buf := &bytes.Buffer{}
	iter := NewSliceIterator([]Row{{Text("a"), Text("b")}})

	_, err := XLSXRenderer{}.Render(context.Background(), SchemaFromNames([]string{"name"}), iter, buf, RenderOptions{})
	if KindFromError(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
