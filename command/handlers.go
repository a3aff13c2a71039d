package command

import (
	"context"

	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-tabular-export/export"
)

// ExportRecordsHandler handles record exports.
type ExportRecordsHandler struct {
	Exporter *export.Exporter
}

func NewExportRecordsHandler(exporter *export.Exporter) *ExportRecordsHandler {
	return &ExportRecordsHandler{Exporter: exporter}
}

func (h *ExportRecordsHandler) Execute(ctx context.Context, msg ExportRecords) error {
	if h == nil || h.Exporter == nil {
		return errors.New("exporter is required", errors.CategoryInternal).
			WithTextCode("EXPORTER_REQUIRED")
	}
	out, err := h.Exporter.ExportRecords(msg.Format, msg.Records, msg.Columns)
	if err != nil {
		return err
	}
	storeResult(ctx, msg.Result, out)
	return nil
}

// ExportTableHandler handles table exports.
type ExportTableHandler struct {
	Exporter *export.Exporter
}

func NewExportTableHandler(exporter *export.Exporter) *ExportTableHandler {
	return &ExportTableHandler{Exporter: exporter}
}

func (h *ExportTableHandler) Execute(ctx context.Context, msg ExportTable) error {
	if h == nil || h.Exporter == nil {
		return errors.New("exporter is required", errors.CategoryInternal).
			WithTextCode("EXPORTER_REQUIRED")
	}
	out, err := h.Exporter.ExportTable(ctx, msg.Source, msg.Table, msg.Format)
	if err != nil {
		return err
	}
	storeResult(ctx, msg.Result, out)
	return nil
}

func storeResult(ctx context.Context, dst *[]byte, out []byte) {
	if dst != nil {
		*dst = out
	}
	if res := gcmd.ResultFromContext[[]byte](ctx); res != nil {
		res.Store(out)
	}
}
