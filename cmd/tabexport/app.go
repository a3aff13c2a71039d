package main

import (
	"context"
	"database/sql"
	"fmt"

	exportbun "github.com/goliatone/go-tabular-export/adapters/bun"
	exportmetrics "github.com/goliatone/go-tabular-export/adapters/metrics"
	exportsqlite "github.com/goliatone/go-tabular-export/adapters/sqlite"
	"github.com/goliatone/go-tabular-export/export"
	exportsql "github.com/goliatone/go-tabular-export/sources/sql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/uptrace/bun/driver/sqliteshim"
	_ "modernc.org/sqlite"
)

// app carries the services shared by every subcommand.
type app struct {
	cfg      Config
	logger   *zap.Logger
	registry *prometheus.Registry
	exporter *export.Exporter
}

func newApp(cfg Config) (*app, error) {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	hook, err := exportmetrics.NewHook(exportmetrics.Config{Namespace: cfg.Metrics.Namespace}, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	exporter := export.NewExporter()
	exporter.Options = cfg.RenderOptions()
	exporter.StrictColumns = cfg.StrictColumns
	exporter.Logger = logger.Sugar()
	exporter.Metrics = hook
	if err := exporter.Renderers.Register(export.FormatSQLite, exportsqlite.Renderer{}); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, registry: registry, exporter: exporter}, nil
}

// openSource connects to the configured database. The returned func closes it.
func (a *app) openSource(ctx context.Context) (export.DataSource, func() error, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if a.cfg.Engine != "bun" {
		source, err := exportsql.Open(ctx, a.cfg.Driver, a.cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Debug("database opened", zap.String("driver", a.cfg.Driver), zap.String("dialect", source.Dialect.Name()))
		return source, source.Close, nil
	}

	dialect, ok := exportsql.DefaultDialects().Resolve(a.cfg.Driver)
	if !ok || dialect.Name() != "sqlite" {
		return nil, nil, fmt.Errorf("bun engine supports sqlite drivers only, got %q", a.cfg.Driver)
	}
	sqldb, err := sql.Open(a.cfg.Driver, a.cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	a.logger.Debug("database opened", zap.String("driver", a.cfg.Driver), zap.String("engine", "bun"))
	return exportbun.NewSource(db), db.Close, nil
}

// flushMetrics writes the metrics textfile when configured.
func (a *app) flushMetrics() error {
	if a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
