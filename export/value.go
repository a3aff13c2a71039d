package export

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// ValueType tags the type carried by a Value.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeText
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeText:
		return "text"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a single typed cell. The zero Value is null.
type Value struct {
	typ ValueType
	i   int64
	f   float64
	s   string
	b   bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{typ: TypeInt, i: v} }

// Float returns a floating-point value. NaN is stored as null.
func Float(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{typ: TypeFloat, f: v}
}

// Text returns a text value.
func Text(v string) Value { return Value{typ: TypeText, s: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{typ: TypeBool, b: v} }

func (v Value) Type() ValueType { return v.typ }

func (v Value) IsNull() bool { return v.typ == TypeNull }

func (v Value) AsInt() (int64, bool) { return v.i, v.typ == TypeInt }

func (v Value) AsFloat() (float64, bool) { return v.f, v.typ == TypeFloat }

func (v Value) AsText() (string, bool) { return v.s, v.typ == TypeText }

func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// Any returns the native Go value: nil, int64, float64, string or bool.
func (v Value) Any() any {
	switch v.typ {
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	case TypeText:
		return v.s
	case TypeBool:
		return v.b
	default:
		return nil
	}
}

// String renders the value as plain text; null renders as "".
func (v Value) String() string {
	switch v.typ {
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return formatFloatText(v.f)
	case TypeText:
		return v.s
	case TypeBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Equal reports whether two values carry the same type and payload.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeInt:
		return v.i == other.i
	case TypeFloat:
		return v.f == other.f
	case TypeText:
		return v.s == other.s
	case TypeBool:
		return v.b == other.b
	default:
		return true
	}
}

// ValueOf coerces a Go value into a Value.
func ValueOf(value any) (Value, error) {
	switch v := value.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case int32:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case uint:
		return uintValue(uint64(v))
	case uint64:
		return uintValue(v)
	case uint32:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case string:
		return Text(v), nil
	case []byte:
		return Text(string(v)), nil
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return Int(parsed), nil
		}
		parsed, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q", v.String())
		}
		return Float(parsed), nil
	case time.Time:
		return Text(v.Format(time.RFC3339Nano)), nil
	case driver.Valuer:
		if isNilPointer(value) {
			return Null(), nil
		}
		raw, err := v.Value()
		if err != nil {
			return Value{}, err
		}
		if _, again := raw.(driver.Valuer); again {
			return Value{}, fmt.Errorf("unsupported value type %T", value)
		}
		return ValueOf(raw)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Null(), nil
		}
		return ValueOf(rv.Elem().Interface())
	}
	return Value{}, fmt.Errorf("unsupported value type %T", value)
}

// MustValueOf is ValueOf that panics on unsupported types.
func MustValueOf(value any) Value {
	v, err := ValueOf(value)
	if err != nil {
		panic(err)
	}
	return v
}

func uintValue(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return Value{}, fmt.Errorf("integer %d overflows int64", v)
	}
	return Int(int64(v)), nil
}

func isNilPointer(value any) bool {
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func formatFloatText(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
