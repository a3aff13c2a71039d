package exportsql

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/goliatone/go-tabular-export/export"
)

// Queryer is the read side of *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Source reads tables through database/sql.
type Source struct {
	DB      Queryer
	Dialect Dialect

	closer io.Closer
}

var _ export.DataSource = (*Source)(nil)

// NewSource creates a table source over an existing handle.
func NewSource(db Queryer, dialect Dialect) *Source {
	return &Source{DB: db, Dialect: dialect}
}

// Open opens a database with a registered driver, verifies the connection and
// picks the dialect matching the driver name. The driver package must be
// imported by the caller.
func Open(ctx context.Context, driver, dsn string) (*Source, error) {
	dialect, ok := DefaultDialects().Resolve(driver)
	if !ok {
		return nil, export.NewError(export.KindValidation, fmt.Sprintf("driver %q has no dialect", driver), nil)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, export.NewError(export.KindInternal, "database open failed", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, export.NewError(export.KindInternal, "database ping failed", err)
	}
	return &Source{DB: db, Dialect: dialect, closer: db}, nil
}

// Close releases the database opened by Open. It is a no-op for sources built
// with NewSource.
func (s *Source) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// TableExists reports whether a base table named exactly table exists.
func (s *Source) TableExists(ctx context.Context, table string) (bool, error) {
	if err := s.validate(); err != nil {
		return false, err
	}
	rows, err := s.DB.QueryContext(ctx, s.Dialect.TableExistsQuery(), table)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = rows.Close()
	}()
	exists := rows.Next()
	if err := rows.Err(); err != nil {
		return false, err
	}
	return exists, nil
}

// ScanTable selects every row of table. Column order follows the table
// definition.
func (s *Source) ScanTable(ctx context.Context, table string) (export.Schema, export.RowIterator, error) {
	if err := s.validate(); err != nil {
		return export.Schema{}, nil, err
	}
	rows, err := s.DB.QueryContext(ctx, "SELECT * FROM "+s.Dialect.QuoteIdentifier(table))
	if err != nil {
		return export.Schema{}, nil, err
	}
	iter, err := NewRowsIterator(rows)
	if err != nil {
		_ = rows.Close()
		return export.Schema{}, nil, err
	}
	return iter.Schema(), iter, nil
}

func (s *Source) validate() error {
	if s == nil || s.DB == nil {
		return export.NewError(export.KindValidation, "database handle is required", nil)
	}
	if s.Dialect == nil {
		return export.NewError(export.KindValidation, "dialect is required", nil)
	}
	return nil
}
