package eip712

import (
	"github.com/goccy/go-json"
	"github.com/indexsupply/ethsig/abi"
	"github.com/indexsupply/ethsig/isxerrors"
)

// The EIP712Domain type is derived from the fields
// that are present, always in this order.
var domainFields = []Field{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
	{Name: "salt", Type: "bytes32"},
}

const domainType = "EIP712Domain"

// Null fields are absent.
type Domain struct {
	Name              abi.Value
	Version           abi.Value
	ChainID           abi.Value
	VerifyingContract abi.Value
	Salt              abi.Value
}

func (d Domain) get(name string) abi.Value {
	switch name {
	case "name":
		return d.Name
	case "version":
		return d.Version
	case "chainId":
		return d.ChainID
	case "verifyingContract":
		return d.VerifyingContract
	case "salt":
		return d.Salt
	default:
		return abi.NullValue()
	}
}

func (d Domain) Fields() []Field {
	var res []Field
	for _, f := range domainFields {
		if !d.get(f.Name).IsNull() {
			res = append(res, f)
		}
	}
	return res
}

func (d Domain) Value() abi.Value {
	fields := map[string]abi.Value{}
	for _, f := range d.Fields() {
		fields[f.Name] = d.get(f.Name)
	}
	return abi.StructValue(fields)
}

func (d Domain) Types() Types {
	return Types{domainType: d.Fields()}
}

func (d Domain) Separator(v Version) ([32]byte, error) {
	enc := Encoder{Types: d.Types(), Version: v}
	return enc.HashStruct(domainType, d.Value())
}

func (d *Domain) UnmarshalJSON(data []byte) error {
	var v abi.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Kind != abi.Struct {
		return isxerrors.InputFormat("domain must be an object. got: %s", v.Kind)
	}
	d.Name, _ = v.Field("name")
	d.Version, _ = v.Field("version")
	d.ChainID, _ = v.Field("chainId")
	d.VerifyingContract, _ = v.Field("verifyingContract")
	d.Salt, _ = v.Field("salt")
	return nil
}
