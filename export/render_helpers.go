package export

import (
	"context"
	"io"
)

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// SliceIterator yields rows from a slice.
type SliceIterator struct {
	rows  []Row
	index int
}

// NewSliceIterator wraps rows in a RowIterator.
func NewSliceIterator(rows []Row) *SliceIterator {
	return &SliceIterator{rows: rows}
}

func (it *SliceIterator) Next(ctx context.Context) (Row, error) {
	_ = ctx
	if it.index >= len(it.rows) {
		return nil, io.EOF
	}
	row := it.rows[it.index]
	it.index++
	return row, nil
}

func (it *SliceIterator) Close() error { return nil }

// CollectRows drains an iterator. The iterator is not closed.
func CollectRows(ctx context.Context, rows RowIterator) ([]Row, error) {
	var out []Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := rows.Next(ctx)
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		out = append(out, row)
	}
}
