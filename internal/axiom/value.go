package axiom

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface representing JSON-compatible metadata values.
// Only Null, String, Int, Float, Bool, Array, and Object implement it.
//
// Shortcut design_implications and execution contexts are open-ended
// key-value payloads; constraining them to this union preserves
// JSON-compatibility without resorting to bare interface{} plumbing.
type Value interface {
	axiomValue() // Sealed - only these types implement it
}

// Null represents a JSON null value.
// Using an explicit type ensures all Values satisfy the sealed interface.
type Null struct{}

func (Null) axiomValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string value.
type String string

func (String) axiomValue() {}

// Int represents an integer value. Always int64.
type Int int64

func (Int) axiomValue() {}

// Float represents a floating-point value.
// NaN and Inf are rejected at canonical serialization time.
type Float float64

func (Float) axiomValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) axiomValue() {}

// Array represents an ordered sequence of Values.
type Array []Value

func (Array) axiomValue() {}

// Object represents a map of string keys to Values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) axiomValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which produces a DIFFERENT order
// for strings outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units as required by
// RFC 8785 canonical JSON.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := len(a16)
	if len(b16) < minLen {
		minLen = len(b16)
	}

	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	if len(a16) < len(b16) {
		return -1
	}
	if len(a16) > len(b16) {
		return 1
	}
	return 0
}

// FromGo converts a plain Go value (as produced by encoding/json or yaml
// decoding into interface{}) into a Value.
//
// Supported inputs: nil, string, bool, int, int64, float64, json.Number,
// []any, map[string]any, and existing Values. float64 inputs that hold an
// exact integer stay Float - the caller chose a float representation.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("non-finite float has no JSON form: %v", val)
		}
		return Float(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("unparseable number %q: %w", string(val), err)
		}
		return Float(f), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			av, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = av
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			av, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = av
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type for axiom value: %T", v)
	}
}

// ObjectFromGo converts a plain Go map into an Object.
// Convenience wrapper around FromGo for the common payload case.
func ObjectFromGo(m map[string]any) (Object, error) {
	obj := make(Object, len(m))
	for k, elem := range m {
		av, err := FromGo(elem)
		if err != nil {
			return nil, fmt.Errorf("[%q]: %w", k, err)
		}
		obj[k] = av
	}
	return obj, nil
}

// ToGo converts a Value back into plain Go types suitable for encoding/json.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToGo(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToGo(elem)
		}
		return out
	default:
		return nil
	}
}

// UnmarshalJSON implements json.Unmarshaler for Object.
func (obj *Object) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*obj = make(Object, len(raw))
	for k, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("object key %q: %w", k, err)
		}
		(*obj)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (arr *Array) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(Array, len(raw))
	for i, v := range raw {
		val, err := unmarshalValue(v)
		if err != nil {
			return fmt.Errorf("array index %d: %w", i, err)
		}
		(*arr)[i] = val
	}
	return nil
}

// unmarshalValue decodes a JSON value into the appropriate Value type.
// Numbers decode as Int when they parse exactly as int64, Float otherwise.
func unmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[':
		var arr Array
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil

	case '{':
		var obj Object
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		return FromGo(n)
	}
}
