package wsecp256k1

import (
	"math"

	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
)

// r and s are big-endian and left padded.
// V holds either a recovery id (0, 1) or the
// legacy Ethereum value (27, 28) and the producer
// of a Signature documents which one it uses.
type Signature struct {
	R, S [32]byte
	V    byte
}

// r || s || v
func (sig Signature) Bytes() []byte {
	b := make([]byte, 65)
	copy(b, sig.R[:])
	copy(b[32:], sig.S[:])
	b[64] = sig.V
	return b
}

func (sig Signature) Hex() string { return eth.EncodeHex(sig.Bytes()) }

func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != 65 {
		return Signature{}, isxerrors.InputFormat("signature must be 65 bytes long. got: %d", len(b))
	}
	var sig Signature
	copy(sig.R[:], b[:32])
	copy(sig.S[:], b[32:64])
	sig.V = b[64]
	return sig, nil
}

func ParseSignature(s string) (Signature, error) {
	b, err := eth.DecodeHex(s)
	if err != nil {
		return Signature{}, err
	}
	return SignatureFromBytes(b)
}

// Returns sig with V in {27, 28}
func (sig Signature) Legacy() Signature {
	if sig.V < 27 {
		sig.V += 27
	}
	return sig
}

// Returns sig with V in {0, 1}
func (sig Signature) Raw() (Signature, error) {
	id, err := RecoveryID(sig.V)
	if err != nil {
		return Signature{}, err
	}
	sig.V = id
	return sig, nil
}

// Accepts 0, 1, 27 and 28. Anything else,
// including chain id encoded values, is an error.
func RecoveryID(v byte) (byte, error) {
	switch v {
	case 0, 1:
		return v, nil
	case 27, 28:
		return v - 27, nil
	default:
		return 0, isxerrors.Signature("invalid v %d. want 0, 1, 27 or 28", v)
	}
}

// Largest chain id whose EIP-155 v fits in a uint64
const MaxChainID = (math.MaxUint64 - 36) / 2

// v = recovery id + chainID·2 + 35
func EIP155V(recID byte, chainID uint64) (uint64, error) {
	if recID > 1 {
		return 0, isxerrors.Signature("invalid recovery id %d", recID)
	}
	if chainID > MaxChainID {
		return 0, isxerrors.Signature("chain id %d overflows v", chainID)
	}
	return uint64(recID) + chainID*2 + 35, nil
}

// Inverse of EIP155V. Returns the recovery id.
func FromEIP155V(v, chainID uint64) (byte, error) {
	if chainID > MaxChainID {
		return 0, isxerrors.Signature("chain id %d overflows v", chainID)
	}
	base := chainID*2 + 35
	if v < base || v-base > 1 {
		return 0, isxerrors.Signature("v %d is not valid for chain %d", v, chainID)
	}
	return byte(v - base), nil
}
