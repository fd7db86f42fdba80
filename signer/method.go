package signer

import (
	"github.com/indexsupply/ethsig/eip712"
	"github.com/indexsupply/ethsig/eip712/legacy"
	"github.com/indexsupply/ethsig/isxerrors"
)

type Method string

const (
	EthSign       Method = "eth_sign"
	PersonalSign  Method = "personal_sign"
	TypedDataV1   Method = "eth_signTypedData"
	TypedDataV3   Method = "eth_signTypedData_v3"
	TypedDataV4   Method = "eth_signTypedData_v4"
	methodUnknown Method = ""
)

var methods = []Method{EthSign, PersonalSign, TypedDataV1, TypedDataV3, TypedDataV4}

func Methods() []Method {
	return append([]Method(nil), methods...)
}

func ParseMethod(s string) (Method, error) {
	for _, m := range methods {
		if string(m) == s {
			return m, nil
		}
	}
	return methodUnknown, isxerrors.InputFormat("unknown signing method %q", s)
}

// Computes the digest that m signs for payload:
//
//	eth_sign              payload is the 32 byte digest
//	personal_sign         payload is the message
//	eth_signTypedData     payload is a legacy json array
//	eth_signTypedData_v3  payload is a typed data json object
//	eth_signTypedData_v4  payload is a typed data json object
type Digester struct {
	Legacy legacy.Scheme
}

func (dg Digester) Digest(m Method, payload []byte) ([32]byte, error) {
	switch m {
	case EthSign:
		if len(payload) != 32 {
			return [32]byte{}, isxerrors.InputFormat("eth_sign requires a 32 byte digest. got: %d", len(payload))
		}
		return [32]byte(payload), nil
	case PersonalSign:
		return TextHash(payload), nil
	case TypedDataV1:
		entries, err := legacy.Parse(payload)
		if err != nil {
			return [32]byte{}, err
		}
		return dg.Legacy.Hash(entries)
	case TypedDataV3, TypedDataV4:
		td, err := eip712.Parse(payload)
		if err != nil {
			return [32]byte{}, err
		}
		if m == TypedDataV3 {
			return td.Hash(eip712.V3)
		}
		return td.Hash(eip712.V4)
	default:
		return [32]byte{}, isxerrors.InputFormat("unknown signing method %q", m)
	}
}
