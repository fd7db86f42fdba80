package eip712

import (
	"github.com/indexsupply/ethsig/abi"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/isxhash"
)

// Selects between the eth_signTypedData_v3
// and eth_signTypedData_v4 encoding rules.
type Version int

const (
	// no arrays, every field must be present
	V3 Version = 3
	// arrays; null or missing values encode as a zero word
	V4 Version = 4
)

func (v Version) String() string {
	switch v {
	case V3:
		return "v3"
	case V4:
		return "v4"
	default:
		return "unknown"
	}
}

type Encoder struct {
	Types   Types
	Version Version
}

// typeHash || encodeValue(field) for each field in schema order.
// Keys in v that are not part of the schema are ignored.
func (e Encoder) EncodeData(name string, v abi.Value) ([]byte, error) {
	th, err := e.Types.TypeHash(name)
	if err != nil {
		return nil, err
	}
	if v.Kind != abi.Struct {
		return nil, isxerrors.Schema("%s expects an object. got: %s", name, v.Kind)
	}
	fields := e.Types[name]
	res := make([]byte, 0, 32*(1+len(fields)))
	res = append(res, th[:]...)
	for _, f := range fields {
		typ, err := abi.Parse(f.Type)
		if err != nil {
			return nil, err
		}
		fv, _ := v.Field(f.Name)
		w, err := e.encodeValue(typ, fv)
		if err != nil {
			return nil, isxerrors.Errorf("%s.%s: %w", name, f.Name, err)
		}
		res = append(res, w[:]...)
	}
	return res, nil
}

func (e Encoder) HashStruct(name string, v abi.Value) ([32]byte, error) {
	d, err := e.EncodeData(name, v)
	if err != nil {
		return [32]byte{}, err
	}
	return isxhash.Keccak32(d), nil
}

func (e Encoder) encodeValue(t abi.Type, v abi.Value) ([32]byte, error) {
	if v.IsNull() {
		if e.Version == V4 {
			return [32]byte{}, nil
		}
		return [32]byte{}, isxerrors.Schema("missing %s value", t)
	}
	switch t.Kind {
	case abi.KindStruct:
		return e.HashStruct(t.Name, v)
	case abi.KindList:
		if e.Version != V4 {
			return [32]byte{}, isxerrors.Schema("%s: arrays require v4", t)
		}
		if v.Kind != abi.List {
			return [32]byte{}, isxerrors.Schema("%s expects a list. got: %s", t, v.Kind)
		}
		if t.Length > 0 && v.Len() != t.Length {
			return [32]byte{}, isxerrors.Schema("%s expects %d items. got: %d", t, t.Length, v.Len())
		}
		words := make([]byte, 0, 32*v.Len())
		for i := 0; i < v.Len(); i++ {
			w, err := e.encodeValue(*t.Elem, v.At(i))
			if err != nil {
				return [32]byte{}, isxerrors.Errorf("[%d]: %w", i, err)
			}
			words = append(words, w[:]...)
		}
		return isxhash.Keccak32(words), nil
	default:
		return abi.Word(t, v)
	}
}
