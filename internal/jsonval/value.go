// Package jsonval provides a closed algebra of JSON values.
//
// CLI output carries open-ended payloads (system message data, tool inputs,
// usage maps). Rather than passing them around as map[string]any, they are
// modeled as a closed recursive variant set so consumers can exhaustively
// type-switch over every shape a value can take.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Value represents a single JSON value.
// Use type assertion or type switch to determine the concrete type.
type Value interface {
	jsonValue() // marker method
}

// Compile-time verification that all variants implement Value.
var (
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Number{}
	_ Value = String("")
	_ Value = Array(nil)
	_ Value = Object(nil)
)

// Null is the JSON null value.
type Null struct{}

func (Null) jsonValue() {}

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Bool is a JSON boolean.
type Bool bool

func (Bool) jsonValue() {}

// MarshalJSON implements json.Marshaler.
func (b Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }

// Number is a JSON number. Values that fit in an int64 are stored
// integrally; everything else falls back to float64.
type Number struct {
	i     int64
	f     float64
	isInt bool
}

func (Number) jsonValue() {}

// Int creates a Number holding an integral value.
func Int(v int64) Number { return Number{i: v, isInt: true} }

// Float creates a Number holding a floating point value.
func Float(v float64) Number { return Number{f: v} }

// IsInt reports whether the number has an integral representation.
func (n Number) IsInt() bool { return n.isInt }

// Int64 returns the value as int64, truncating a float representation.
func (n Number) Int64() int64 {
	if n.isInt {
		return n.i
	}

	return int64(n.f)
}

// Float64 returns the value as float64.
func (n Number) Float64() float64 {
	if n.isInt {
		return float64(n.i)
	}

	return n.f
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.isInt {
		return []byte(strconv.FormatInt(n.i, 10)), nil
	}

	return json.Marshal(n.f)
}

// String is a JSON string.
type String string

func (String) jsonValue() {}

// MarshalJSON implements json.Marshaler.
func (s String) MarshalJSON() ([]byte, error) { return json.Marshal(string(s)) }

// Array is an ordered sequence of JSON values.
type Array []Value

func (Array) jsonValue() {}

// MarshalJSON implements json.Marshaler.
func (a Array) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]Value(a))
}

// Object is a mapping from string keys to JSON values.
type Object map[string]Value

func (Object) jsonValue() {}

// MarshalJSON implements json.Marshaler.
// Keys are emitted in sorted order so output is deterministic.
func (o Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}

	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := json.Marshal(o[k])
		if err != nil {
			return nil, err
		}

		buf.Write(valJSON)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// String returns the string value at key, with ok reporting whether the key
// exists and holds a String.
func (o Object) String(key string) (string, bool) {
	s, ok := o[key].(String)

	return string(s), ok
}

// Int returns the value at key as an int64. Float representations are
// truncated. ok reports whether the key exists and holds a Number.
func (o Object) Int(key string) (int64, bool) {
	n, ok := o[key].(Number)
	if !ok {
		return 0, false
	}

	return n.Int64(), true
}

// Float returns the value at key as a float64.
func (o Object) Float(key string) (float64, bool) {
	n, ok := o[key].(Number)
	if !ok {
		return 0, false
	}

	return n.Float64(), true
}

// Bool returns the boolean value at key.
func (o Object) Bool(key string) (bool, bool) {
	b, ok := o[key].(Bool)

	return bool(b), ok
}

// Object returns the nested object at key.
func (o Object) Object(key string) (Object, bool) {
	v, ok := o[key].(Object)

	return v, ok
}

// Array returns the array at key.
func (o Object) Array(key string) (Array, bool) {
	v, ok := o[key].(Array)

	return v, ok
}

// Decode parses JSON data into a Value.
// Numbers are kept integral when they fit in an int64.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	// Reject trailing garbage after the first value.
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}

	return fromDecoded(raw)
}

// DecodeObject parses JSON data that must be an object.
func DecodeObject(data []byte) (Object, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}

	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}

	return obj, nil
}

// fromDecoded converts a json.Decoder result tree into the Value algebra.
func fromDecoded(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i), nil
		}

		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v.String(), err)
		}

		return Float(f), nil
	case string:
		return String(v), nil
	case []any:
		arr := make(Array, 0, len(v))

		for _, item := range v {
			val, err := fromDecoded(item)
			if err != nil {
				return nil, err
			}

			arr = append(arr, val)
		}

		return arr, nil
	case map[string]any:
		obj := make(Object, len(v))

		for k, item := range v {
			val, err := fromDecoded(item)
			if err != nil {
				return nil, err
			}

			obj[k] = val
		}

		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported JSON type %T", raw)
	}
}
