// ethereum types
package eth

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/indexsupply/ethsig/isxerrors"
)

type Address [20]byte

// Accepts any casing. Checksums are
// a presentation concern and are not verified.
func ParseAddress(s string) (Address, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return Address{}, err
	}
	if len(b) != 20 {
		return Address{}, isxerrors.InputFormat("address must be 20 bytes. got: %d", len(b))
	}
	return Address(b), nil
}

func (a Address) Hex() string    { return EncodeHex(a[:]) }
func (a Address) String() string { return a.Hex() }

// EIP-55 mixed case encoding
func (a Address) Checksum() string {
	return common.Address(a).Hex()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	p, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = p
	return nil
}

type Hash [32]byte

func ParseHash(s string) (Hash, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return Hash{}, err
	}
	if len(b) != 32 {
		return Hash{}, isxerrors.InputFormat("hash must be 32 bytes. got: %d", len(b))
	}
	return Hash(b), nil
}

func (h Hash) Hex() string    { return EncodeHex(h[:]) }
func (h Hash) String() string { return h.Hex() }

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(data []byte) error {
	p, err := ParseHash(string(data))
	if err != nil {
		return err
	}
	*h = p
	return nil
}

// Variable length byte string encoded as 0x hex in json
type Bytes []byte

func (b Bytes) String() string { return EncodeHex(b) }

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(EncodeHex(b)), nil
}

func (b *Bytes) UnmarshalText(data []byte) error {
	d, err := DecodeHex(string(data))
	if err != nil {
		return err
	}
	*b = d
	return nil
}
