package export

import (
	"bytes"
	"context"
	"io"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"
)

// JSONRenderer renders JSON output: an array of objects, or one object per
// line when Lines is set.
type JSONRenderer struct {
	Lines bool
}

// Render writes rows as JSON objects whose keys follow schema order.
func (r JSONRenderer) Render(ctx context.Context, schema Schema, rows RowIterator, w io.Writer, opts RenderOptions) (RenderStats, error) {
	cw := &countingWriter{w: w}
	stats := RenderStats{}

	keys := make([][]byte, len(schema.Columns))
	for i, col := range schema.Columns {
		encoded, err := encodeJSONString(col.Name)
		if err != nil {
			return stats, err
		}
		keys[i] = encoded
	}

	indent := opts.JSON.Indent
	if r.Lines {
		indent = ""
	}

	first := true
	buf := &bytes.Buffer{}
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

		buf.Reset()
		if !r.Lines {
			switch {
			case first:
				buf.WriteByte('[')
			default:
				buf.WriteByte(',')
			}
			if indent != "" {
				buf.WriteByte('\n')
				buf.WriteString(indent)
			}
		}
		if err := writeJSONObject(buf, keys, row, indent); err != nil {
			return stats, err
		}
		if r.Lines {
			buf.WriteByte('\n')
		}
		if _, err := cw.Write(buf.Bytes()); err != nil {
			return stats, err
		}
		first = false
		stats.Rows++
	}

	if !r.Lines {
		closing := "]"
		switch {
		case first:
			closing = "[]"
		case indent != "":
			closing = "\n]"
		}
		if _, err := io.WriteString(cw, closing); err != nil {
			return stats, err
		}
	}

	stats.Bytes = cw.count
	return stats, nil
}

func writeJSONObject(buf *bytes.Buffer, keys [][]byte, row Row, indent string) error {
	if len(keys) == 0 {
		buf.WriteString("{}")
		return nil
	}
	buf.WriteByte('{')
	for i, value := range row {
		if i > 0 {
			buf.WriteByte(',')
		}
		if indent != "" {
			buf.WriteByte('\n')
			buf.WriteString(indent)
			buf.WriteString(indent)
		}
		buf.Write(keys[i])
		buf.WriteByte(':')
		if indent != "" {
			buf.WriteByte(' ')
		}
		encoded, err := encodeJSONValue(value)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	}
	if indent != "" {
		buf.WriteByte('\n')
		buf.WriteString(indent)
	}
	buf.WriteByte('}')
	return nil
}

func encodeJSONValue(value Value) ([]byte, error) {
	switch value.Type() {
	case TypeInt:
		i, _ := value.AsInt()
		return strconv.AppendInt(nil, i, 10), nil
	case TypeFloat:
		f, _ := value.AsFloat()
		return encodeJSONFloat(f)
	case TypeText:
		s, _ := value.AsText()
		return encodeJSONString(s)
	case TypeBool:
		if b, _ := value.AsBool(); b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// encodeJSONFloat keeps integral floats recognisable as floats (100.0).
// Non-finite values have no JSON form and are written as null.
func encodeJSONFloat(f float64) ([]byte, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	encoded, err := gojson.Marshal(f)
	if err != nil {
		return nil, err
	}
	if !bytes.ContainsAny(encoded, ".eE") {
		encoded = append(encoded, '.', '0')
	}
	return encoded, nil
}

// encodeJSONString leaves HTML characters and non-ASCII text unescaped.
func encodeJSONString(s string) ([]byte, error) {
	return gojson.MarshalWithOption(s, gojson.DisableHTMLEscape())
}
