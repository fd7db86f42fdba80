package abi

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/indexsupply/ethsig/isxerrors"
)

type ValueKind byte

const (
	Null ValueKind = iota
	Bool
	Number
	String
	List
	Struct
)

func (k ValueKind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Struct:
		return "struct"
	default:
		return "unknown"
	}
}

// Value is an untyped tree decoded from json. It
// gets its meaning from the Type it is encoded with.
// Numbers keep their literal text so that
// 256 bit integers survive decoding.
type Value struct {
	Kind ValueKind

	b      bool
	s      string
	list   []Value
	fields map[string]Value
}

func NullValue() Value              { return Value{Kind: Null} }
func BoolValue(b bool) Value        { return Value{Kind: Bool, b: b} }
func NumberValue(lit string) Value  { return Value{Kind: Number, s: lit} }
func StringValue(s string) Value    { return Value{Kind: String, s: s} }
func ListValue(vals ...Value) Value { return Value{Kind: List, list: vals} }

func StructValue(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{Kind: Struct, fields: fields}
}

func (v Value) Bool() bool       { return v.b }
func (v Value) Str() string      { return v.s }
func (v Value) Len() int         { return len(v.list) }
func (v Value) At(i int) Value   { return v.list[i] }
func (v Value) IsNull() bool     { return v.Kind == Null }
func (v Value) NumFields() int   { return len(v.fields) }
func (v Value) Fields() []string { return sortedKeys(v.fields) }

// Missing fields are returned as Null
func (v Value) Field(name string) (Value, bool) {
	f, ok := v.fields[name]
	return f, ok
}

func sortedKeys(m map[string]Value) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v Value) String() string {
	switch v.Kind {
	case Null:
		return "null"
	case Bool:
		return fmt.Sprintf("%t", v.b)
	case Number:
		return v.s
	case String:
		return fmt.Sprintf("%q", v.s)
	case List:
		var parts []string
		for i := range v.list {
			parts = append(parts, v.list[i].String())
		}
		return "[" + strings.Join(parts, ",") + "]"
	case Struct:
		var parts []string
		for _, k := range sortedKeys(v.fields) {
			parts = append(parts, fmt.Sprintf("%q:%s", k, v.fields[k]))
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "unknown"
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return isxerrors.InputFormat("decoding value: %w", err)
	}
	nv, err := fromAny(x)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}

func fromAny(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(x), nil
	case json.Number:
		return NumberValue(x.String()), nil
	case string:
		return StringValue(x), nil
	case []any:
		vals := make([]Value, len(x))
		for i := range x {
			v, err := fromAny(x[i])
			if err != nil {
				return Value{}, err
			}
			vals[i] = v
		}
		return ListValue(vals...), nil
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k := range x {
			v, err := fromAny(x[k])
			if err != nil {
				return Value{}, err
			}
			fields[k] = v
		}
		return StructValue(fields), nil
	default:
		return Value{}, isxerrors.InputFormat("unexpected json value %T", x)
	}
}
