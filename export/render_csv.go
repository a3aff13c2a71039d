package export

import (
	"context"
	"encoding/csv"
	"io"
)

// CSVRenderer renders CSV output.
type CSVRenderer struct{}

// Render writes a header line followed by one line per row. A schema without
// columns produces no output at all.
func (r CSVRenderer) Render(ctx context.Context, schema Schema, rows RowIterator, w io.Writer, opts RenderOptions) (RenderStats, error) {
	cw := &countingWriter{w: w}
	writer := csv.NewWriter(cw)
	if opts.CSV.Delimiter != 0 {
		writer.Comma = opts.CSV.Delimiter
	}

	if opts.CSV.IncludeHeaders && len(schema.Columns) > 0 {
		headers := make([]string, 0, len(schema.Columns))
		for _, col := range schema.Columns {
			label := col.Label
			if label == "" {
				label = col.Name
			}
			headers = append(headers, label)
		}
		if err := writeCSVRecord(writer, cw, headers); err != nil {
			return RenderStats{}, err
		}
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

		record := make([]string, len(row))
		for i, value := range row {
			record[i] = value.String()
		}
		if err := writeCSVRecord(writer, cw, record); err != nil {
			return stats, err
		}
		stats.Rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return stats, err
	}

	stats.Bytes = cw.count
	return stats, nil
}

// writeCSVRecord quotes a lone empty field so readers that skip blank lines
// still see the row.
func writeCSVRecord(writer *csv.Writer, w io.Writer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return writer.Write(record)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	line := "\"\"\n"
	if writer.UseCRLF {
		line = "\"\"\r\n"
	}
	_, err := io.WriteString(w, line)
	return err
}
