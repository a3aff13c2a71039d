package exportsql

import (
	"strings"

	"github.com/lib/pq"
)

// Dialect captures the SQL differences between supported databases.
type Dialect interface {
	Name() string
	// QuoteIdentifier quotes a table name so any characters are taken literally.
	QuoteIdentifier(name string) string
	// TableExistsQuery returns a query that selects one row when a base table
	// with the bound name exists. Views never match.
	TableExistsQuery() string
}

// SQLite reads the sqlite_master catalog.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdentifier(name string) string { return QuoteIdent(`"`, name) }

func (SQLite) TableExistsQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`
}

// Postgres reads information_schema within the current schema.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (Postgres) TableExistsQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' AND table_name = $1`
}

// MySQL reads information_schema within the selected database.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdentifier(name string) string { return QuoteIdent("`", name) }

// BINARY keeps the lookup exact under case-insensitive collations.
func (MySQL) TableExistsQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' AND BINARY table_name = ?"
}

// QuoteIdent wraps name in quote, doubling any embedded quote characters.
func QuoteIdent(quote, name string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}
