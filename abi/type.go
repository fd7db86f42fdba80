// ABI types and values as they are used for hashing.
//
// This package does not produce calldata. Dynamic values
// are reduced to their Keccak hash so that every atomic
// value occupies exactly one 32 byte word.
package abi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/wstrings"
)

// Kinds
const (
	KindAddress byte = 'a'
	KindBool    byte = 'b'
	KindUint    byte = 'u'
	KindInt     byte = 'i'
	KindFixed   byte = 'f' // bytesN
	KindBytes   byte = 'd'
	KindString  byte = 's'
	KindList    byte = 'l'
	KindStruct  byte = 't'
)

type Type struct {
	Kind byte

	// bits for uintN/intN, bytes for bytesN
	Size int

	// struct type name
	Name string

	// array. Length is 0 for T[]
	Length int
	Elem   *Type
}

// Returns the struct name at the bottom of
// any array nesting, or "" for primitives.
func (t Type) Base() string {
	for t.Kind == KindList {
		t = *t.Elem
	}
	if t.Kind == KindStruct {
		return t.Name
	}
	return ""
}

// Reports whether the value fits in one word
// without recursion (no arrays, no structs).
func (t Type) Atomic() bool {
	return t.Kind != KindList && t.Kind != KindStruct
}

func (t Type) String() string {
	switch t.Kind {
	case KindAddress:
		return "address"
	case KindBool:
		return "bool"
	case KindUint:
		return fmt.Sprintf("uint%d", t.Size)
	case KindInt:
		return fmt.Sprintf("int%d", t.Size)
	case KindFixed:
		return fmt.Sprintf("bytes%d", t.Size)
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindStruct:
		return t.Name
	case KindList:
		if t.Length == 0 {
			return t.Elem.String() + "[]"
		}
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Length)
	default:
		return "unknown"
	}
}

// Parses a type token such as uint256, bytes32,
// Person or Person[2][]. Any valid identifier that
// is not a primitive is treated as a struct name.
// Whether that struct exists is up to the caller.
func Parse(s string) (Type, error) {
	if strings.HasSuffix(s, "]") {
		return parseArray(s)
	}
	switch s {
	case "address":
		return Type{Kind: KindAddress}, nil
	case "bool":
		return Type{Kind: KindBool}, nil
	case "bytes":
		return Type{Kind: KindBytes}, nil
	case "string":
		return Type{Kind: KindString}, nil
	}
	for _, p := range []struct {
		prefix string
		kind   byte
	}{
		{"uint", KindUint},
		{"int", KindInt},
		{"bytes", KindFixed},
	} {
		rest, ok := strings.CutPrefix(s, p.prefix)
		if !ok || !digits(rest) {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || strings.HasPrefix(rest, "0") {
			return Type{}, isxerrors.Encoding("unsupported type %q", s)
		}
		switch p.kind {
		case KindFixed:
			if n < 1 || n > 32 {
				return Type{}, isxerrors.Encoding("unsupported type %q", s)
			}
		default:
			if n < 8 || n > 256 || n%8 != 0 {
				return Type{}, isxerrors.Encoding("unsupported type %q", s)
			}
		}
		return Type{Kind: p.kind, Size: n}, nil
	}
	if err := wstrings.Ident(s); err != nil {
		return Type{}, isxerrors.Encoding("unsupported type %q: %w", s, err)
	}
	return Type{Kind: KindStruct, Name: s}, nil
}

// true for "" so that a bare uint or int
// fails in Atoi rather than becoming a struct.
// Callers reject leading zeros since the token is
// hashed as written.
func digits(s string) bool {
	for i := range s {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseArray(s string) (Type, error) {
	i := strings.LastIndexByte(s, '[')
	if i <= 0 {
		return Type{}, isxerrors.Encoding("unsupported type %q", s)
	}
	elem, err := Parse(s[:i])
	if err != nil {
		return Type{}, err
	}
	t := Type{Kind: KindList, Elem: &elem}
	num := s[i+1 : len(s)-1]
	if num == "" {
		return t, nil
	}
	k, err := strconv.Atoi(num)
	if err != nil || k < 1 || !digits(num) || num[0] == '0' {
		return Type{}, isxerrors.Encoding("array %q has invalid length", s)
	}
	t.Length = k
	return t, nil
}
