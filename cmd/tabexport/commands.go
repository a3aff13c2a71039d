package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/goliatone/go-tabular-export/command"
	"github.com/goliatone/go-tabular-export/export"
	"github.com/goliatone/go-tabular-export/query"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	driver     string
	dsn        string
	engine     string
	logLevel   string
	format     string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var current *app

	root := &cobra.Command{
		Use:   "tabexport",
		Short: "Export database tables and JSON records as CSV, JSON and more",
		Long: `tabexport reads a whole table from SQLite, Postgres or MySQL, or a JSON
record file, and writes it as CSV, JSON, NDJSON, XLSX or a SQLite snapshot.

Example:
  tabexport table users --driver sqlite --dsn ./app.db --format json --out users.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(flags.configFile)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, flags, &cfg)
			current, err = newApp(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if current == nil {
				return nil
			}
			defer current.close()
			return current.flushMetrics()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "Path to YAML configuration file")
	pf.StringVar(&flags.driver, "driver", "", "database/sql driver (sqlite, postgres, pgx, mysql)")
	pf.StringVar(&flags.dsn, "dsn", "", "Data source name")
	pf.StringVar(&flags.engine, "engine", "", "Data source engine (sql, bun)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVarP(&flags.format, "format", "f", "", "Output format (csv, json, ndjson, xlsx, sqlite)")

	appFn := func() *app { return current }
	root.AddCommand(
		newTableCmd(appFn),
		newBatchCmd(appFn),
		newRecordsCmd(appFn),
		newPreviewCmd(appFn),
		newExistsCmd(appFn),
		newVersionCmd(),
	)
	return root
}

func applyFlagOverrides(cmd *cobra.Command, flags *rootFlags, cfg *Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("driver") {
		cfg.Driver = flags.driver
	}
	if changed("dsn") {
		cfg.DSN = flags.dsn
	}
	if changed("engine") {
		cfg.Engine = flags.engine
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("format") {
		cfg.Format = flags.format
	}
}

func newTableCmd(appFn func() *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "table <name>",
		Short: "Export a whole table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			source, closeSource, err := a.openSource(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeSource()
			}()

			handler := command.NewExportTableHandler(a.exporter)
			format := export.Format(a.cfg.Format)
			if out == "-" || (out == "" && a.cfg.OutputDir == "") {
				var data []byte
				msg := command.ExportTable{Source: source, Table: args[0], Format: format, Result: &data}
				if err := msg.Validate(); err != nil {
					return err
				}
				if err := handler.Execute(ctx, msg); err != nil {
					return err
				}
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			executor := newFileExecutor(a, handler, source)
			req := command.BatchRequest{Table: args[0], Format: format, Output: out}
			return executor.ExecuteTable(ctx, req)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; \"-\" writes to stdout")
	return cmd
}

func newBatchCmd(appFn func() *app) *cobra.Command {
	var from string
	var maxRequests int
	var minInterval time.Duration
	meta := command.BatchCLIConfig()
	cmd := &cobra.Command{
		Use:   meta.Path[len(meta.Path)-1],
		Short: meta.Description,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			source, closeSource, err := a.openSource(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeSource()
			}()

			executor := newFileExecutor(a, command.NewExportTableHandler(a.exporter), source)
			batch := command.NewBatchCommand(executor, command.WithBatchLimits(command.BatchLimits{
				MaxRequests: maxRequests,
				MinInterval: minInterval,
			}))
			count, err := batch.Run(ctx, from)
			a.logger.Sugar().Infof("batch exported %d tables", count)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d tables\n", count)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Path to batch file (required)")
	cmd.Flags().IntVar(&maxRequests, "max", 0, "Maximum number of tables to export (0 = all)")
	cmd.Flags().DurationVar(&minInterval, "min-interval", 0, "Pause between table exports (e.g. 500ms)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newRecordsCmd(appFn func() *app) *cobra.Command {
	var in, out, columns string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Export records from a JSON array or NDJSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			records, err := readRecords(cmd.InOrStdin(), in)
			if err != nil {
				return err
			}

			var data []byte
			msg := command.ExportRecords{
				Format:  export.Format(a.cfg.Format),
				Records: records,
				Columns: splitColumns(columns),
				Result:  &data,
			}
			if err := msg.Validate(); err != nil {
				return err
			}
			if err := command.NewExportRecordsHandler(a.exporter).Execute(cmd.Context(), msg); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "Input file; \"-\" reads stdin")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file; \"-\" writes to stdout")
	cmd.Flags().StringVar(&columns, "columns", "", "Comma separated output columns")
	return cmd
}

func newPreviewCmd(appFn func() *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "preview <name>",
		Short: "Print the first rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			source, closeSource, err := a.openSource(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeSource()
			}()

			if limit == 0 {
				limit = a.cfg.PreviewLimit
			}
			msg := query.TablePreview{Source: source, Table: args[0], Limit: limit}
			if err := msg.Validate(); err != nil {
				return err
			}
			preview, err := query.NewTablePreviewHandler().Query(ctx, msg)
			if err != nil {
				return err
			}
			renderPreview(cmd.OutOrStdout(), preview)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of rows to show")
	return cmd
}

func newExistsCmd(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists <name>",
		Short: "Check whether a table exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()
			ctx := cmd.Context()
			source, closeSource, err := a.openSource(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeSource()
			}()

			msg := query.TableExists{Catalog: source, Table: args[0]}
			if err := msg.Validate(); err != nil {
				return err
			}
			exists, err := query.NewTableExistsHandler().Query(ctx, msg)
			if err != nil {
				return err
			}
			if !exists {
				return &export.TableNotFoundError{Table: args[0]}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "table %q exists\n", args[0])
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "tabexport v%s\n", version)
			fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newFileExecutor(a *app, handler *command.ExportTableHandler, source export.DataSource) *command.FileExecutor {
	return &command.FileExecutor{
		Handler:       handler,
		Source:        source,
		Dir:           a.cfg.OutputDir,
		Pattern:       a.cfg.Filename,
		DefaultFormat: export.Format(a.cfg.Format),
	}
}

func readRecords(stdin io.Reader, path string) ([]export.Record, error) {
	if path == "" || path == "-" {
		return export.DecodeRecords(stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open records file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return export.DecodeRecords(file)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func splitColumns(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	columns := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			columns = append(columns, name)
		}
	}
	return columns
}

func renderPreview(w io.Writer, preview query.Preview) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(preview.Schema.Names())
	table.SetAutoFormatHeaders(false)
	for _, row := range preview.Rows {
		cells := make([]string, len(row))
		for i, value := range row {
			if value.IsNull() {
				cells[i] = "NULL"
				continue
			}
			cells[i] = value.String()
		}
		table.Append(cells)
	}
	table.Render()
	if preview.Truncated {
		fmt.Fprintf(w, "(showing first %d rows)\n", len(preview.Rows))
	}
}
