package exportbun

import (
	"context"
	"fmt"

	"github.com/goliatone/go-tabular-export/export"
	exportsql "github.com/goliatone/go-tabular-export/sources/sql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// bun interpolates "?" placeholders itself, for every dialect.
const postgresTableExistsQuery = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' AND table_name = ?`

// Source reads tables through a Bun database, transaction or connection.
type Source struct {
	DB bun.IDB
}

var _ export.DataSource = (*Source)(nil)

// NewSource creates a Bun-backed table source.
func NewSource(db bun.IDB) *Source {
	return &Source{DB: db}
}

// TableExists reports whether a base table named exactly table exists.
func (s *Source) TableExists(ctx context.Context, table string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, export.NewError(export.KindValidation, "bun database not configured", nil)
	}
	query, err := tableExistsQuery(s.DB.Dialect().Name())
	if err != nil {
		return false, err
	}

	var names []string
	if err := s.DB.NewRaw(query, table).Scan(ctx, &names); err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ScanTable selects every row of table.
func (s *Source) ScanTable(ctx context.Context, table string) (export.Schema, export.RowIterator, error) {
	if s == nil || s.DB == nil {
		return export.Schema{}, nil, export.NewError(export.KindValidation, "bun database not configured", nil)
	}
	quoted := exportsql.QuoteIdent(string(s.DB.Dialect().IdentQuote()), table)
	rows, err := s.DB.QueryContext(ctx, "SELECT * FROM ?", bun.Safe(quoted))
	if err != nil {
		return export.Schema{}, nil, err
	}
	iter, err := exportsql.NewRowsIterator(rows)
	if err != nil {
		_ = rows.Close()
		return export.Schema{}, nil, err
	}
	return iter.Schema(), iter, nil
}

func tableExistsQuery(name dialect.Name) (string, error) {
	switch name {
	case dialect.SQLite:
		return exportsql.SQLite{}.TableExistsQuery(), nil
	case dialect.PG:
		return postgresTableExistsQuery, nil
	case dialect.MySQL:
		return exportsql.MySQL{}.TableExistsQuery(), nil
	default:
		return "", export.NewError(export.KindValidation, fmt.Sprintf("bun dialect %s not supported", name), nil)
	}
}
