package command

import (
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-tabular-export/export"
)

// ExportRecords serializes in-memory records.
type ExportRecords struct {
	Format  export.Format
	Records []export.Record
	Columns []string
	Result  *[]byte
}

func (ExportRecords) Type() string { return "export:records" }

func (msg ExportRecords) Validate() error {
	return validateFormat(msg.Format)
}

// ExportTable serializes a whole table from a data source.
type ExportTable struct {
	Source export.DataSource
	Table  string
	Format export.Format
	Result *[]byte
}

func (ExportTable) Type() string { return "export:table" }

func (msg ExportTable) Validate() error {
	if msg.Source == nil {
		return errors.New("data source is required", errors.CategoryValidation).
			WithTextCode("SOURCE_REQUIRED")
	}
	if msg.Table == "" {
		return errors.New("table name is required", errors.CategoryValidation).
			WithTextCode("TABLE_REQUIRED")
	}
	return validateFormat(msg.Format)
}

func validateFormat(format export.Format) error {
	switch export.NormalizeFormat(format) {
	case export.FormatCSV, export.FormatJSON, export.FormatNDJSON, export.FormatXLSX, export.FormatSQLite:
		return nil
	default:
		return errors.New(fmt.Sprintf("format %q not supported", format), errors.CategoryValidation).
			WithTextCode("FORMAT_UNSUPPORTED")
	}
}
