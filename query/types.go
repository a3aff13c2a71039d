package query

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-tabular-export/export"
)

// TableExists asks whether a table is present in a catalog.
type TableExists struct {
	Catalog export.Catalog
	Table   string
}

func (TableExists) Type() string { return "export:table_exists" }

func (msg TableExists) Validate() error {
	if msg.Catalog == nil {
		return errors.New("catalog is required", errors.CategoryValidation).
			WithTextCode("CATALOG_REQUIRED")
	}
	if msg.Table == "" {
		return errors.New("table name is required", errors.CategoryValidation).
			WithTextCode("TABLE_REQUIRED")
	}
	return nil
}

// TablePreview requests the first rows of a table.
type TablePreview struct {
	Source export.DataSource
	Table  string
	// Limit caps returned rows; zero means DefaultPreviewLimit.
	Limit int
}

// DefaultPreviewLimit bounds previews without an explicit limit.
const DefaultPreviewLimit = 20

func (TablePreview) Type() string { return "export:table_preview" }

func (msg TablePreview) Validate() error {
	if msg.Source == nil {
		return errors.New("data source is required", errors.CategoryValidation).
			WithTextCode("SOURCE_REQUIRED")
	}
	if msg.Table == "" {
		return errors.New("table name is required", errors.CategoryValidation).
			WithTextCode("TABLE_REQUIRED")
	}
	if msg.Limit < 0 {
		return errors.New("limit must not be negative", errors.CategoryValidation).
			WithTextCode("LIMIT_INVALID")
	}
	return nil
}

// Preview holds the leading rows of a table.
type Preview struct {
	Schema export.Schema
	Rows   []export.Row
	// Truncated is set when the table has more rows than were returned.
	Truncated bool
}
