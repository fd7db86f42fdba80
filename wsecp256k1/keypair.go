package wsecp256k1

import (
	"log/slog"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
)

// Holds a caller supplied private key. The key
// is never printed: both String and LogValue
// render the address.
type KeyPair struct {
	priv *secp256k1.PrivateKey
	pub  *secp256k1.PublicKey
	addr eth.Address
}

func NewKeyPair(priv *secp256k1.PrivateKey) KeyPair {
	pub := priv.PubKey()
	return KeyPair{priv: priv, pub: pub, addr: Address(pub)}
}

// Parses a 32 byte hex encoded scalar in [1, N-1]
func ParsePrivateKey(s string) (KeyPair, error) {
	b, err := eth.DecodeHex(s)
	if err != nil {
		return KeyPair{}, isxerrors.InputFormat("private key is not hex")
	}
	if len(b) != 32 {
		return KeyPair{}, isxerrors.InputFormat("private key must be 32 bytes. got: %d", len(b))
	}
	k := new(big.Int).SetBytes(b)
	if k.Sign() == 0 || k.Cmp(curveN) >= 0 {
		return KeyPair{}, isxerrors.InputFormat("private key out of range")
	}
	return NewKeyPair(secp256k1.PrivKeyFromBytes(b)), nil
}

func (kp KeyPair) Address() eth.Address { return kp.addr }
func (kp KeyPair) PublicKey() *secp256k1.PublicKey { return kp.pub }
func (kp KeyPair) Sign(d []byte) (Signature, error) { return Sign(kp.priv, d) }
func (kp KeyPair) String() string { return kp.addr.Hex() }
func (kp KeyPair) LogValue() slog.Value { return slog.StringValue(kp.addr.Hex()) }
func (kp KeyPair) Valid() bool { return kp.priv != nil }
