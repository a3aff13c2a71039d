package export

import (
	"context"
	"io"
	"math"

	"github.com/xuri/excelize/v2"
)

const (
	excelMaxRows     = 1048576
	defaultSheetName = "Sheet1"
)

// XLSXRenderer renders XLSX output.
type XLSXRenderer struct{}

// Render streams rows into a single-sheet XLSX workbook.
func (r XLSXRenderer) Render(ctx context.Context, schema Schema, rows RowIterator, w io.Writer, opts RenderOptions) (RenderStats, error) {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	sheetName := opts.XLSX.SheetName
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	defaultSheet := file.GetSheetName(0)
	if defaultSheet != sheetName {
		file.SetSheetName(defaultSheet, sheetName)
	}

	stream, err := file.NewStreamWriter(sheetName)
	if err != nil {
		return RenderStats{}, NewError(KindValidation, "invalid sheet name", err)
	}

	headerID, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return RenderStats{}, err
	}

	rowIndex := 1
	if opts.XLSX.IncludeHeaders && len(schema.Columns) > 0 {
		headers := make([]interface{}, len(schema.Columns))
		for i, col := range schema.Columns {
			label := col.Label
			if label == "" {
				label = col.Name
			}
			headers[i] = excelize.Cell{StyleID: headerID, Value: label}
		}
		if err := setXLSXRow(stream, rowIndex, headers); err != nil {
			return RenderStats{}, err
		}
		rowIndex++
	}

	stats := RenderStats{}
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := rows.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return stats, err
		}
		if len(row) != len(schema.Columns) {
			return stats, NewError(KindValidation, "row length does not match schema", nil)
		}
		if rowIndex > excelMaxRows {
			return stats, NewError(KindValidation, "xlsx row limit exceeded", nil)
		}

		cells := make([]interface{}, len(row))
		for i, value := range row {
			cells[i] = buildXLSXCell(value)
		}
		if err := setXLSXRow(stream, rowIndex, cells); err != nil {
			return stats, err
		}
		rowIndex++
		stats.Rows++
	}

	if err := stream.Flush(); err != nil {
		return stats, err
	}

	cw := &countingWriter{w: w}
	if _, err := file.WriteTo(cw); err != nil {
		return stats, err
	}
	stats.Bytes = cw.count
	return stats, nil
}

func setXLSXRow(stream *excelize.StreamWriter, rowIndex int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIndex)
	if err != nil {
		return err
	}
	return stream.SetRow(cell, cells)
}

func buildXLSXCell(value Value) excelize.Cell {
	switch value.Type() {
	case TypeInt:
		i, _ := value.AsInt()
		return excelize.Cell{Value: i}
	case TypeFloat:
		f, _ := value.AsFloat()
		if math.IsInf(f, 0) {
			return excelize.Cell{Value: value.String()}
		}
		return excelize.Cell{Value: f}
	case TypeText:
		s, _ := value.AsText()
		return excelize.Cell{Value: s}
	case TypeBool:
		b, _ := value.AsBool()
		return excelize.Cell{Value: b}
	default:
		return excelize.Cell{Value: ""}
	}
}
