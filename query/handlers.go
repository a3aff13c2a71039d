package query

import (
	"context"
	"io"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-tabular-export/export"
)

// TableExistsHandler answers catalog lookups.
type TableExistsHandler struct{}

func NewTableExistsHandler() *TableExistsHandler {
	return &TableExistsHandler{}
}

func (h *TableExistsHandler) Query(ctx context.Context, msg TableExists) (bool, error) {
	if msg.Catalog == nil {
		return false, errors.New("catalog is required", errors.CategoryValidation).
			WithTextCode("CATALOG_REQUIRED")
	}
	return msg.Catalog.TableExists(ctx, msg.Table)
}

// TablePreviewHandler reads the leading rows of a table.
type TablePreviewHandler struct{}

func NewTablePreviewHandler() *TablePreviewHandler {
	return &TablePreviewHandler{}
}

func (h *TablePreviewHandler) Query(ctx context.Context, msg TablePreview) (Preview, error) {
	if msg.Source == nil {
		return Preview{}, errors.New("data source is required", errors.CategoryValidation).
			WithTextCode("SOURCE_REQUIRED")
	}
	limit := msg.Limit
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	exists, err := msg.Source.TableExists(ctx, msg.Table)
	if err != nil {
		return Preview{}, err
	}
	if !exists {
		return Preview{}, &export.TableNotFoundError{Table: msg.Table}
	}

	schema, iter, err := msg.Source.ScanTable(ctx, msg.Table)
	if err != nil {
		return Preview{}, err
	}
	defer func() {
		_ = iter.Close()
	}()

	preview := Preview{Schema: schema}
	for {
		row, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Preview{}, err
		}
		if len(preview.Rows) == limit {
			preview.Truncated = true
			break
		}
		preview.Rows = append(preview.Rows, row)
	}
	return preview, nil
}
