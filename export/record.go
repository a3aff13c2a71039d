package export

import "fmt"

// Field is a named value inside a Record.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building a Field.
func F(name string, value Value) Field {
	return Field{Name: name, Value: value}
}

// Record is an ordered mapping from column name to value. Key order is
// insertion order and drives column inference.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a record from fields; a repeated name keeps its first
// position and takes the last value.
func NewRecord(fields ...Field) Record {
	r := Record{}
	for _, field := range fields {
		r.Set(field.Name, field.Value)
	}
	return r
}

// RecordFromValues pairs keys with Go values coerced through ValueOf.
func RecordFromValues(keys []string, values []any) (Record, error) {
	if len(keys) != len(values) {
		return Record{}, fmt.Errorf("record has %d keys and %d values", len(keys), len(values))
	}
	r := Record{}
	for i, key := range keys {
		value, err := ValueOf(values[i])
		if err != nil {
			return Record{}, fmt.Errorf("field %q: %w", key, err)
		}
		r.Set(key, value)
	}
	return r, nil
}

// Set assigns a value, appending the key when it is new.
func (r *Record) Set(name string, value Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if idx, ok := r.index[name]; ok {
		r.fields[idx].Value = value
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the value for name.
func (r Record) Get(name string) (Value, bool) {
	idx, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.fields[idx].Value, true
}

// Has reports whether name is a key of the record.
func (r Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Keys returns the record keys in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, field := range r.fields {
		keys[i] = field.Name
	}
	return keys
}

// Fields returns a copy of the ordered fields.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r Record) Len() int { return len(r.fields) }
