package exportsqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-tabular-export/export"
	_ "modernc.org/sqlite"
)

const defaultTableName = "data"

// Renderer writes rows into a SQLite database file.
type Renderer struct {
	TableName string
}

// Render buffers rows into a temp SQLite database and streams it to w.
func (r Renderer) Render(ctx context.Context, schema export.Schema, rows export.RowIterator, w io.Writer, opts export.RenderOptions) (export.RenderStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(schema.Columns) == 0 {
		return export.RenderStats{}, export.NewError(export.KindValidation, "schema has no columns", nil)
	}

	tableName := strings.TrimSpace(opts.SQLite.TableName)
	if tableName == "" {
		tableName = strings.TrimSpace(r.TableName)
	}
	tableName = sanitizeIdentifier(tableName, defaultTableName)
	spec, err := buildTableSpec(schema, tableName)
	if err != nil {
		return export.RenderStats{}, err
	}

	tempFile, err := os.CreateTemp("", "tabexport-*.sqlite")
	if err != nil {
		return export.RenderStats{}, export.NewError(export.KindInternal, "sqlite temp file create failed", err)
	}
	path := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(path)
		return export.RenderStats{}, export.NewError(export.KindInternal, "sqlite temp file close failed", err)
	}
	defer func() {
		_ = os.Remove(path)
	}()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return export.RenderStats{}, export.NewError(export.KindInternal, "sqlite open failed", err)
	}

	stats, err := writeSQLiteRows(ctx, db, spec, rows)
	if err != nil {
		_ = db.Close()
		return stats, err
	}
	if err := db.Close(); err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite close failed", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite temp file open failed", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cw := &countingWriter{w: w}
	if _, err := io.Copy(cw, file); err != nil {
		return export.RenderStats{Rows: stats.Rows, Bytes: cw.count}, err
	}
	stats.Bytes = cw.count
	return stats, nil
}

type tableSpec struct {
	tableName string
	columns   []string
	createSQL string
	insertSQL string
}

func buildTableSpec(schema export.Schema, tableName string) (tableSpec, error) {
	seen := make(map[string]struct{}, len(schema.Columns))
	columns := make([]string, len(schema.Columns))
	columnDefs := make([]string, len(schema.Columns))
	columnNames := make([]string, len(schema.Columns))

	for i, col := range schema.Columns {
		name := strings.TrimSpace(col.Label)
		if name == "" {
			name = col.Name
		}
		if name == "" {
			return tableSpec{}, export.NewError(export.KindValidation, "column name is required", nil)
		}
		// SQLite identifiers are case-insensitive.
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return tableSpec{}, export.NewError(export.KindValidation, fmt.Sprintf("duplicate column %q", name), nil)
		}
		seen[key] = struct{}{}

		columns[i] = name
		columnDefs[i] = strings.TrimSpace(quoteIdentifier(name) + " " + sqliteColumnType(col.Type))
		columnNames[i] = quoteIdentifier(name)
	}

	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdentifier(tableName), strings.Join(columnDefs, ", "))
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdentifier(tableName), strings.Join(columnNames, ", "), strings.Join(placeholders(len(columns)), ", "))

	return tableSpec{
		tableName: tableName,
		columns:   columns,
		createSQL: createSQL,
		insertSQL: insertSQL,
	}, nil
}

func writeSQLiteRows(ctx context.Context, db *sql.DB, spec tableSpec, rows export.RowIterator) (export.RenderStats, error) {
	stats := export.RenderStats{}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite begin transaction failed", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, spec.createSQL); err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite create table failed", err)
	}

	stmt, err := tx.PrepareContext(ctx, spec.insertSQL)
	if err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite prepare insert failed", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := rows.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return stats, err
		}
		if len(row) != len(spec.columns) {
			return stats, export.NewError(export.KindValidation, "row length does not match schema", nil)
		}

		values := make([]any, len(row))
		for i, value := range row {
			values[i] = sqliteValue(value)
		}

		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return stats, export.NewError(export.KindInternal, "sqlite insert failed", err)
		}
		stats.Rows++
	}

	if err := tx.Commit(); err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite commit failed", err)
	}
	return stats, nil
}

// sqliteColumnType maps a source type name to a SQLite affinity. Unknown
// types get no declared type so values keep their storage class.
func sqliteColumnType(colType string) string {
	switch normalizeColumnType(colType) {
	case "bool", "int":
		return "INTEGER"
	case "float":
		return "REAL"
	case "string", "date", "datetime", "time":
		return "TEXT"
	default:
		return ""
	}
}

func sqliteValue(value export.Value) any {
	if b, ok := value.AsBool(); ok {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return value.Any()
}

func placeholders(count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = "?"
	}
	return out
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sanitizeIdentifier(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := strings.Trim(b.String(), "_")
	if sanitized == "" {
		sanitized = fallback
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "t_" + sanitized
	}
	return sanitized
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

func normalizeColumnType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexByte(normalized, '('); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	switch normalized {
	case "string", "text", "varchar", "char", "clob", "uuid":
		return "string"
	case "bool", "boolean":
		return "bool"
	case "int", "integer", "int64", "int32", "int16", "int8", "bigint", "smallint", "tinyint":
		return "int"
	case "float", "float64", "float32", "real", "decimal", "number", "numeric", "double":
		return "float"
	case "date":
		return "date"
	case "time", "timetz":
		return "time"
	case "datetime", "timestamp", "timestamptz":
		return "datetime"
	default:
		return normalized
	}
}
