package eip712

import (
	"github.com/goccy/go-json"
	"github.com/indexsupply/ethsig/abi"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/isxhash"
)

// The argument of eth_signTypedData_v3 and _v4
type TypedData struct {
	Types       Types     `json:"types"`
	PrimaryType string    `json:"primaryType"`
	Domain      Domain    `json:"domain"`
	Message     abi.Value `json:"message"`
}

// Parses and validates a typed data document.
// Unknown keys are ignored. A declared EIP712Domain
// type is accepted but the domain type used for
// hashing is always derived from the domain fields.
func Parse(data []byte) (TypedData, error) {
	var doc struct {
		Types       *Types     `json:"types"`
		PrimaryType *string    `json:"primaryType"`
		Domain      *Domain    `json:"domain"`
		Message     *abi.Value `json:"message"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return TypedData{}, inputFormat("decoding typed data", err)
	}
	switch {
	case doc.Types == nil:
		return TypedData{}, isxerrors.InputFormat("missing types")
	case doc.PrimaryType == nil:
		return TypedData{}, isxerrors.InputFormat("missing primaryType")
	case doc.Domain == nil:
		return TypedData{}, isxerrors.InputFormat("missing domain")
	case doc.Message == nil:
		return TypedData{}, isxerrors.InputFormat("missing message")
	}
	td := TypedData{
		Types:       *doc.Types,
		PrimaryType: *doc.PrimaryType,
		Domain:      *doc.Domain,
		Message:     *doc.Message,
	}
	return td, td.Validate()
}

func inputFormat(msg string, err error) error {
	if isxerrors.Kind(err) != nil {
		return err
	}
	return isxerrors.InputFormat("%s: %w", msg, err)
}

func (td TypedData) Validate() error {
	if err := td.Types.Validate(); err != nil {
		return err
	}
	if td.PrimaryType == domainType {
		return nil
	}
	if _, ok := td.Types[td.PrimaryType]; !ok {
		return isxerrors.Schema("primary type %q is not defined", td.PrimaryType)
	}
	return nil
}

func (td TypedData) DomainSeparator(v Version) ([32]byte, error) {
	return td.Domain.Separator(v)
}

func (td TypedData) StructHash(v Version) ([32]byte, error) {
	enc := Encoder{Types: td.Types, Version: v}
	return enc.HashStruct(td.PrimaryType, td.Message)
}

// 0x19 0x01 || domainSeparator || hashStruct(message)
//
// When the primary type is EIP712Domain only the
// domain is signed and the struct hash is omitted.
func (td TypedData) Encode(v Version) ([]byte, error) {
	if err := td.Validate(); err != nil {
		return nil, err
	}
	ds, err := td.DomainSeparator(v)
	if err != nil {
		return nil, isxerrors.Errorf("domain: %w", err)
	}
	res := make([]byte, 0, 66)
	res = append(res, 0x19, 0x01)
	res = append(res, ds[:]...)
	if td.PrimaryType == domainType {
		return res, nil
	}
	hs, err := td.StructHash(v)
	if err != nil {
		return nil, err
	}
	return append(res, hs[:]...), nil
}

func (td TypedData) Hash(v Version) ([32]byte, error) {
	b, err := td.Encode(v)
	if err != nil {
		return [32]byte{}, err
	}
	return isxhash.Keccak32(b), nil
}
