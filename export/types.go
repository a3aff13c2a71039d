package export

import (
	"context"
	"io"
	"time"
)

// Format is the export output format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatXLSX   Format = "xlsx"
	// FormatSQLite is served by the exportsqlite adapter, which callers
	// register explicitly.
	FormatSQLite Format = "sqlite"
)

// Column defines a column in the export schema.
type Column struct {
	Name  string
	Label string
	// Type is the source type name (e.g. INTEGER, TEXT), informational only.
	Type string
}

// Schema defines the columns for a dataset.
type Schema struct {
	Columns []Column
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// SchemaFromNames builds a schema with untyped columns.
func SchemaFromNames(names []string) Schema {
	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name}
	}
	return Schema{Columns: columns}
}

// Row is a column-aligned record.
type Row []Value

// RowIterator streams rows.
type RowIterator interface {
	Next(ctx context.Context) (Row, error)
	Close() error
}

// Renderer writes rows to the destination.
type Renderer interface {
	Render(ctx context.Context, schema Schema, rows RowIterator, w io.Writer, opts RenderOptions) (RenderStats, error)
}

// RenderStats capture renderer output.
type RenderStats struct {
	Rows  int64
	Bytes int64
}

// CSVOptions configures CSV output.
type CSVOptions struct {
	IncludeHeaders bool
	Delimiter      rune
	HeadersSet     bool
}

// JSONOptions configures JSON output.
type JSONOptions struct {
	Indent string
	// IndentSet allows an explicit empty indent (compact output).
	IndentSet bool
}

// XLSXOptions configures XLSX output.
type XLSXOptions struct {
	IncludeHeaders bool
	HeadersSet     bool
	SheetName      string
}

// SQLiteOptions configures SQLite snapshot output.
type SQLiteOptions struct {
	TableName string
}

// RenderOptions configures renderer behavior.
type RenderOptions struct {
	CSV    CSVOptions
	JSON   JSONOptions
	XLSX   XLSXOptions
	SQLite SQLiteOptions
}

// Catalog answers schema catalog lookups.
type Catalog interface {
	// TableExists reports whether an object of kind "table" named exactly
	// table exists. Views never match.
	TableExists(ctx context.Context, table string) (bool, error)
}

// TableScanner reads a full table.
type TableScanner interface {
	ScanTable(ctx context.Context, table string) (Schema, RowIterator, error)
}

// DataSource is a relational store the table exporter reads from.
type DataSource interface {
	Catalog
	TableScanner
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger is a no-op logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// MetricsEvent describes a finished export.
type MetricsEvent struct {
	Name      string
	ExportID  string
	Format    Format
	Origin    string
	Table     string
	Rows      int64
	Bytes     int64
	Duration  time.Duration
	ErrorKind ErrorKind
	Timestamp time.Time
}

// MetricsHook emits metrics-friendly export observations.
type MetricsHook interface {
	Emit(ctx context.Context, evt MetricsEvent) error
}

// Export origins reported in MetricsEvent.Origin.
const (
	OriginRecords = "records"
	OriginTable   = "table"
)

// Metrics event names.
const (
	EventCompleted = "export.completed"
	EventFailed    = "export.failed"
)
