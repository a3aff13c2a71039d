package export

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// DecodeRecords reads records from a JSON array of objects or from a stream
// of objects (NDJSON). Object key order is preserved. Integral numbers decode
// as Int, other numbers as Float; nested arrays and objects are rejected.
func DecodeRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []Record
	switch tok {
	case json.Delim('['):
		for dec.More() {
			if err := expectDelim(dec, '{'); err != nil {
				return nil, fmt.Errorf("record %d: %w", len(records), err)
			}
			record, err := decodeObject(dec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", len(records), err)
			}
			records = append(records, record)
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
	case json.Delim('{'):
		for {
			record, err := decodeObject(dec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", len(records), err)
			}
			records = append(records, record)
			if !dec.More() {
				break
			}
			if err := expectDelim(dec, '{'); err != nil {
				return nil, fmt.Errorf("record %d: %w", len(records), err)
			}
		}
	default:
		return nil, fmt.Errorf("expected array or object, got %v", tok)
	}
	return records, nil
}

// decodeObject reads the members of an object whose '{' was consumed.
func decodeObject(dec *json.Decoder) (Record, error) {
	record := Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Record{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Record{}, fmt.Errorf("expected object key, got %v", tok)
		}
		tok, err = dec.Token()
		if err != nil {
			return Record{}, err
		}
		if _, nested := tok.(json.Delim); nested {
			return Record{}, fmt.Errorf("field %q: nested values are not supported", key)
		}
		value, err := ValueOf(tok)
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", key, err)
		}
		record.Set(key, value)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Record{}, err
	}
	return record, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != want {
		return fmt.Errorf("expected %v, got %v", want, tok)
	}
	return nil
}
