package exportsql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-tabular-export/export"
)

// RowsIterator adapts *sql.Rows to export.RowIterator.
type RowsIterator struct {
	rows   *sql.Rows
	schema export.Schema
	kinds  []string
}

// NewRowsIterator reads the column metadata of rows. The iterator owns rows
// and closes them on Close.
func NewRowsIterator(rows *sql.Rows) (*RowsIterator, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	columns := make([]export.Column, len(types))
	kinds := make([]string, len(types))
	for i, ct := range types {
		columns[i] = export.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
		kinds[i] = normalizeColumnType(ct.DatabaseTypeName())
	}
	return &RowsIterator{rows: rows, schema: export.Schema{Columns: columns}, kinds: kinds}, nil
}

// Schema returns the result columns in select order.
func (it *RowsIterator) Schema() export.Schema {
	return it.schema
}

func (it *RowsIterator) Next(ctx context.Context) (export.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	raw := make([]any, len(it.kinds))
	dest := make([]any, len(it.kinds))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := it.rows.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(export.Row, len(raw))
	for i, value := range raw {
		converted, err := convertValue(value, it.kinds[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", it.schema.Columns[i].Name, err)
		}
		row[i] = converted
	}
	return row, nil
}

func (it *RowsIterator) Close() error {
	return it.rows.Close()
}

// Layouts for temporal columns, matching how the database prints them.
const (
	dateLayout        = "2006-01-02"
	datetimeLayout    = "2006-01-02 15:04:05.999999999"
	timestamptzLayout = "2006-01-02 15:04:05.999999999-07:00"
	timeLayout        = "15:04:05.999999999"
)

// convertValue turns a scanned driver value into an export.Value. Drivers that
// use a text protocol hand back numbers as bytes; kind recovers them.
func convertValue(value any, kind string) (export.Value, error) {
	var text string
	switch v := value.(type) {
	case []byte:
		text = string(v)
	case string:
		text = v
	case time.Time:
		return export.Text(formatTime(v, kind)), nil
	default:
		return export.ValueOf(value)
	}

	switch kind {
	case "int":
		if parsed, err := strconv.ParseInt(text, 10, 64); err == nil {
			return export.Int(parsed), nil
		}
	case "float":
		if parsed, err := strconv.ParseFloat(text, 64); err == nil {
			return export.Float(parsed), nil
		}
	case "bool":
		if parsed, err := strconv.ParseBool(text); err == nil {
			return export.Bool(parsed), nil
		}
	}
	return export.Text(text), nil
}

func normalizeColumnType(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if idx := strings.IndexByte(normalized, '('); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	normalized = strings.TrimPrefix(normalized, "unsigned ")
	switch normalized {
	case "bool", "boolean":
		return "bool"
	case "int", "integer", "int2", "int4", "int8", "bigint", "smallint", "mediumint", "tinyint", "serial", "bigserial":
		return "int"
	case "float", "float4", "float8", "real", "double", "double precision", "decimal", "numeric", "number":
		return "float"
	case "date":
		return "date"
	case "datetime", "timestamp", "timestamp without time zone":
		return "datetime"
	case "timestamptz", "timestamp with time zone":
		return "timestamptz"
	case "time", "time without time zone", "timetz", "time with time zone":
		return "time"
	default:
		return "string"
	}
}

// formatTime prints t using the declared column kind. Columns without a
// temporal declaration keep the RFC 3339 form.
func formatTime(t time.Time, kind string) string {
	switch kind {
	case "date":
		return t.Format(dateLayout)
	case "datetime":
		return t.Format(datetimeLayout)
	case "timestamptz":
		return t.Format(timestamptzLayout)
	case "time":
		return t.Format(timeLayout)
	default:
		return t.Format(time.RFC3339Nano)
	}
}
