package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Exporter serializes records and database tables. The zero value is not
// usable; build one with NewExporter.
type Exporter struct {
	Renderers *RendererRegistry
	Options   RenderOptions
	// StrictColumns validates explicit columns against every record instead
	// of only the first one.
	StrictColumns bool
	Logger        Logger
	Metrics       MetricsHook
	Now           func() time.Time
	IDGenerator   func() string
}

// NewExporter creates an exporter with the built-in renderers.
func NewExporter() *Exporter {
	return &Exporter{
		Renderers:   DefaultRenderers(),
		Logger:      NopLogger{},
		Now:         time.Now,
		IDGenerator: uuid.NewString,
	}
}

// ExportRecordsAsCSV serializes records as CSV.
func ExportRecordsAsCSV(records []Record, columns []string) ([]byte, error) {
	return NewExporter().ExportRecords(FormatCSV, records, columns)
}

// ExportRecordsAsJSON serializes records as an indented JSON array.
func ExportRecordsAsJSON(records []Record, columns []string) ([]byte, error) {
	return NewExporter().ExportRecords(FormatJSON, records, columns)
}

// ExportTableAsCSV serializes a whole table as CSV.
func ExportTableAsCSV(ctx context.Context, source DataSource, table string) ([]byte, error) {
	return NewExporter().ExportTable(ctx, source, table, FormatCSV)
}

// ExportTableAsJSON serializes a whole table as an indented JSON array.
func ExportTableAsJSON(ctx context.Context, source DataSource, table string) ([]byte, error) {
	return NewExporter().ExportTable(ctx, source, table, FormatJSON)
}

// ExportRecords serializes records in the given format. With no records and
// no columns, CSV yields zero bytes and JSON yields "[]".
func (e *Exporter) ExportRecords(format Format, records []Record, columns []string) ([]byte, error) {
	ctx := context.Background()
	run := e.start(OriginRecords, format, "")

	resolved, err := resolveColumns(records, columns, e.StrictColumns)
	if err != nil {
		return nil, e.finish(ctx, run, RenderStats{}, wrapError(err, "export records failed", ""))
	}

	out, stats, err := e.render(ctx, run.format, SchemaFromNames(resolved), projectRecords(records, resolved))
	if err != nil {
		return nil, e.finish(ctx, run, stats, wrapError(err, "export records failed", ""))
	}
	return out, e.finish(ctx, run, stats, nil)
}

// ExportTable checks that table exists, reads it fully and serializes it in
// schema column order.
func (e *Exporter) ExportTable(ctx context.Context, source DataSource, table string, format Format) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	run := e.start(OriginTable, format, table)

	if source == nil {
		err := &ExportError{Kind: KindValidation, Msg: "data source is required", Table: table}
		return nil, e.finish(ctx, run, RenderStats{}, err)
	}

	exists, err := source.TableExists(ctx, table)
	if err != nil {
		return nil, e.finish(ctx, run, RenderStats{}, wrapError(err, "table lookup failed", table))
	}
	if !exists {
		return nil, e.finish(ctx, run, RenderStats{}, &TableNotFoundError{Table: table})
	}

	schema, iter, err := source.ScanTable(ctx, table)
	if err != nil {
		return nil, e.finish(ctx, run, RenderStats{}, wrapError(err, "table scan failed", table))
	}
	rows, err := CollectRows(ctx, iter)
	closeErr := iter.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, e.finish(ctx, run, RenderStats{}, wrapError(err, "table scan failed", table))
	}

	out, stats, err := e.render(ctx, run.format, schema, rows)
	if err != nil {
		return nil, e.finish(ctx, run, stats, wrapError(err, "export table failed", table))
	}
	return out, e.finish(ctx, run, stats, nil)
}

func (e *Exporter) render(ctx context.Context, format Format, schema Schema, rows []Row) ([]byte, RenderStats, error) {
	renderers := e.Renderers
	if renderers == nil {
		renderers = DefaultRenderers()
	}
	renderer, ok := renderers.Resolve(format)
	if !ok {
		return nil, RenderStats{}, NewError(KindValidation, fmt.Sprintf("format %q not supported", format), nil)
	}

	buf := &bytes.Buffer{}
	stats, err := renderer.Render(ctx, schema, NewSliceIterator(rows), buf, normalizeOptions(format, e.Options))
	if err != nil {
		return nil, stats, err
	}
	out := buf.Bytes()
	if out == nil {
		out = []byte{}
	}
	return out, stats, nil
}

type exportRun struct {
	id        string
	origin    string
	format    Format
	table     string
	startedAt time.Time
}

func (e *Exporter) start(origin string, format Format, table string) exportRun {
	run := exportRun{
		origin:    origin,
		format:    NormalizeFormat(format),
		table:     table,
		startedAt: e.now(),
	}
	if e.IDGenerator != nil {
		run.id = e.IDGenerator()
	}
	if origin == OriginTable {
		e.logger().Debugf("export %s: table %q as %s", run.id, table, run.format)
	} else {
		e.logger().Debugf("export %s: records as %s", run.id, run.format)
	}
	return run
}

func (e *Exporter) finish(ctx context.Context, run exportRun, stats RenderStats, err error) error {
	now := e.now()
	evt := MetricsEvent{
		Name:      EventCompleted,
		ExportID:  run.id,
		Format:    run.format,
		Origin:    run.origin,
		Table:     run.table,
		Rows:      stats.Rows,
		Bytes:     stats.Bytes,
		Duration:  now.Sub(run.startedAt),
		Timestamp: now,
	}
	if err != nil {
		evt.Name = EventFailed
		evt.ErrorKind = KindFromError(err)
		e.logger().Errorf("export %s failed: %v", run.id, err)
	} else {
		e.logger().Infof("export %s completed: rows=%d bytes=%d", run.id, stats.Rows, stats.Bytes)
	}
	if e.Metrics != nil {
		if merr := e.Metrics.Emit(ctx, evt); merr != nil {
			e.logger().Errorf("export %s metrics emit failed: %v", run.id, merr)
		}
	}
	return err
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Exporter) logger() Logger {
	if e.Logger == nil {
		return NopLogger{}
	}
	return e.Logger
}
