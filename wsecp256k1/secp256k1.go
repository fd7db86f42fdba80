// wsecp256k1 provides a wrapper around the secp256k1 package
// from dcrec --which is an actively maintained codebase built from
// btcd.
//
// Since Ethereum uses secp256k1 in special ways, this package
// exists to encapsulate the special ways so that it is easier to
// use the secp256k1 code in the 'right way.'
//
// Signatures are deterministic (RFC 6979) and low-s normalized.
// Sign reports the raw recovery id (0 or 1) in V. Use
// Signature.Legacy for the 27/28 convention and EIP155V
// for chain id encoded values.
package wsecp256k1

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/isxhash"
)

// read-only after init
var (
	curveN = secp256k1.Params().N
	curveP = secp256k1.Params().P
	halfN  = new(big.Int).Rsh(curveN, 1)
)

func Sign(k *secp256k1.PrivateKey, d []byte) (Signature, error) {
	if len(d) != 32 {
		return Signature{}, isxerrors.InputFormat("input must be 32 bytes long")
	}
	var (
		pub  = k.PubKey()
		kb   = k.Key.Bytes()
		e    secp256k1.ModNScalar
		kinv secp256k1.ModNScalar
		R    secp256k1.JacobianPoint
	)
	e.SetByteSlice(d)
	for iter := uint32(0); ; iter++ {
		nonce := secp256k1.NonceRFC6979(kb[:], d, nil, nil, iter)
		secp256k1.ScalarBaseMultNonConst(nonce, &R)
		R.ToAffine()

		var r secp256k1.ModNScalar
		r.SetBytes(R.X.Bytes())
		if r.IsZero() {
			nonce.Zero()
			continue
		}
		// s = k⁻¹(e + rd)
		kinv.InverseValNonConst(nonce)
		nonce.Zero()
		s := new(secp256k1.ModNScalar).Mul2(&r, &k.Key).Add(&e).Mul(&kinv)
		if s.IsZero() {
			continue
		}
		if s.IsOverHalfOrder() {
			s.Negate()
		}
		sig := Signature{R: r.Bytes(), S: s.Bytes()}
		id, ok := recoveryID(sig, d, pub)
		if !ok {
			// r overflowed the order. Such signatures
			// cannot be expressed with v ∈ {0, 1}.
			continue
		}
		sig.V = id
		return sig, nil
	}
}

// Tests each candidate R against the known public key.
func recoveryID(sig Signature, d []byte, pub *secp256k1.PublicKey) (byte, bool) {
	for id := byte(0); id < 4; id++ {
		got, err := recoverID(sig, d, id)
		if err != nil {
			continue
		}
		if got.IsEqual(pub) {
			return id, id < 2
		}
	}
	return 0, false
}

// Recovers the public key that produced sig over hash.
// sig.V may be a recovery id (0, 1) or the legacy
// Ethereum value (27, 28). Chain id encoded values must
// first be converted with FromEIP155V.
func Recover(sig Signature, hash []byte) (*secp256k1.PublicKey, error) {
	if len(hash) != 32 {
		return nil, isxerrors.InputFormat("hash must be 32 bytes long")
	}
	id, err := RecoveryID(sig.V)
	if err != nil {
		return nil, err
	}
	return recoverID(sig, hash, id)
}

func recoverID(sig Signature, hash []byte, id byte) (*secp256k1.PublicKey, error) {
	rb := new(big.Int).SetBytes(sig.R[:])
	sb := new(big.Int).SetBytes(sig.S[:])
	if rb.Sign() == 0 || rb.Cmp(curveN) >= 0 {
		return nil, isxerrors.Signature("r must be in [1, N-1]")
	}
	if sb.Sign() == 0 || sb.Cmp(curveN) >= 0 {
		return nil, isxerrors.Signature("s must be in [1, N-1]")
	}
	// Recovery ids 2 and 3 indicate that R.x = r + N
	x := rb
	if id&2 != 0 {
		x = new(big.Int).Add(rb, curveN)
		if x.Cmp(curveP) >= 0 {
			return nil, isxerrors.Signature("r + N overflows the field")
		}
	}
	var (
		xb [32]byte
		Rp secp256k1.JacobianPoint
	)
	x.FillBytes(xb[:])
	Rp.X.SetBytes(&xb)
	if !secp256k1.DecompressY(&Rp.X, id&1 == 1, &Rp.Y) {
		return nil, isxerrors.Signature("r is not the x coordinate of a curve point")
	}
	Rp.Z.SetInt(1)

	var r, s, e, w secp256k1.ModNScalar
	r.SetBytes(&sig.R)
	s.SetBytes(&sig.S)
	e.SetByteSlice(hash)
	w.InverseValNonConst(&r)
	// u1 = -e·r⁻¹, u2 = s·r⁻¹
	u1 := new(secp256k1.ModNScalar).Mul2(&e, &w).Negate()
	u2 := new(secp256k1.ModNScalar).Mul2(&s, &w)

	var u1G, u2R, Q secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(u1, &u1G)
	secp256k1.ScalarMultNonConst(u2, &Rp, &u2R)
	secp256k1.AddNonConst(&u1G, &u2R, &Q)
	if (Q.X.IsZero() && Q.Y.IsZero()) || Q.Z.IsZero() {
		return nil, isxerrors.Signature("recovered point at infinity")
	}
	Q.ToAffine()
	return secp256k1.NewPublicKey(&Q.X, &Q.Y), nil
}

func Encode(pubkey *secp256k1.PublicKey) []byte {
	// SerializeUncompressed returns:
	// 0x04 || 32-byte x coordinate || 32-byte y coordinate
	b := pubkey.SerializeUncompressed()
	return b[1:]
}

// Decodes x || y without the 0x04 prefix
func Decode(d []byte) (*secp256k1.PublicKey, error) {
	if len(d) != 64 {
		return nil, isxerrors.InputFormat("public key must be 64 bytes. got: %d", len(d))
	}
	pub, err := secp256k1.ParsePubKey(append([]byte{0x04}, d...))
	if err != nil {
		return nil, isxerrors.InputFormat("parsing public key: %w", err)
	}
	return pub, nil
}

// Last 20 bytes of keccak(x || y)
func Address(pubkey *secp256k1.PublicKey) eth.Address {
	h := isxhash.Keccak32(Encode(pubkey))
	return eth.Address(h[12:])
}
