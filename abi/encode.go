package abi

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/isxhash"
)

// Encodes an atomic value into a single word:
//
//	address      left padded
//	bool         0 or 1, left padded
//	uintN/intN   big endian two's complement
//	bytesN       right padded, length must be exactly N
//	bytes/string keccak of the contents
//
// Arrays and structs are the caller's responsibility
// since they require a type schema.
func Word(t Type, v Value) ([32]byte, error) {
	w, _, err := atom(t, v)
	return w, err
}

// Solidity packed encoding of an atomic value.
// Dynamic values are returned in full, not hashed.
func Packed(t Type, v Value) ([]byte, error) {
	w, raw, err := atom(t, v)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case KindAddress:
		return w[12:], nil
	case KindBool:
		return w[31:], nil
	case KindUint, KindInt:
		return w[32-t.Size/8:], nil
	case KindFixed:
		return w[:t.Size], nil
	default:
		return raw, nil
	}
}

func atom(t Type, v Value) ([32]byte, []byte, error) {
	var w [32]byte
	if v.Kind == Null {
		return w, nil, isxerrors.Schema("missing %s value", t)
	}
	switch t.Kind {
	case KindAddress:
		b, err := hexValue(t, v)
		if err != nil {
			return w, nil, err
		}
		if len(b) != 20 {
			return w, nil, isxerrors.Encoding("address must be 20 bytes. got: %d", len(b))
		}
		copy(w[12:], b)
		return w, nil, nil
	case KindBool:
		if v.Kind != Bool {
			return w, nil, mismatch(t, v)
		}
		if v.b {
			w[31] = 1
		}
		return w, nil, nil
	case KindUint, KindInt:
		n, err := Int(v)
		if err != nil {
			return w, nil, err
		}
		w, err = integer(t, n)
		return w, nil, err
	case KindFixed:
		b, err := hexValue(t, v)
		if err != nil {
			return w, nil, err
		}
		if len(b) != t.Size {
			return w, nil, isxerrors.Encoding("%s requires %d bytes. got: %d", t, t.Size, len(b))
		}
		copy(w[:], b)
		return w, nil, nil
	case KindBytes:
		b, err := hexValue(t, v)
		if err != nil {
			return w, nil, err
		}
		return isxhash.Keccak32(b), b, nil
	case KindString:
		if v.Kind != String {
			return w, nil, mismatch(t, v)
		}
		b := []byte(v.s)
		return isxhash.Keccak32(b), b, nil
	default:
		return w, nil, isxerrors.Schema("%s is not an atomic type", t)
	}
}

func mismatch(t Type, v Value) error {
	return isxerrors.Schema("%s cannot hold a %s value", t, v.Kind)
}

func hexValue(t Type, v Value) ([]byte, error) {
	if v.Kind != String {
		return nil, mismatch(t, v)
	}
	if !strings.HasPrefix(v.s, "0x") && !strings.HasPrefix(v.s, "0X") {
		return nil, isxerrors.InputFormat("%s value must be 0x prefixed hex", t)
	}
	return eth.DecodeHex(v.s)
}

// Parses a json number or a string holding
// a decimal or 0x prefixed hex integer.
// A leading minus sign is allowed in both forms.
func Int(v Value) (*big.Int, error) {
	if v.Kind != Number && v.Kind != String {
		return nil, isxerrors.Schema("expected number. got: %s", v.Kind)
	}
	var (
		s    = v.s
		neg  = strings.HasPrefix(s, "-")
		base = 10
	)
	if neg {
		s = s[1:]
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	if s == "" || !numeric(s, base) {
		return nil, isxerrors.Encoding("malformed number %q", v.s)
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, isxerrors.Encoding("malformed number %q", v.s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func numeric(s string, base int) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case base == 16 && c >= 'a' && c <= 'f':
		case base == 16 && c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

var one = big.NewInt(1)

func integer(t Type, n *big.Int) ([32]byte, error) {
	switch t.Kind {
	case KindUint:
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return [32]byte{}, isxerrors.Encoding("%s out of range: %s", t, n)
		}
	case KindInt:
		lim := new(big.Int).Lsh(one, uint(t.Size-1))
		if n.Cmp(lim) >= 0 || n.Cmp(new(big.Int).Neg(lim)) < 0 {
			return [32]byte{}, isxerrors.Encoding("%s out of range: %s", t, n)
		}
	}
	// negative values become two's complement
	u, _ := uint256.FromBig(n)
	return u.Bytes32(), nil
}
