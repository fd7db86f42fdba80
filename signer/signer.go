// Package signer turns messages into digests the way
// wallets do and signs them.
//
// Every Signature returned by this package has V in
// {27, 28}. Recovery accepts {0, 1} as well.
package signer

import (
	"strconv"

	"github.com/indexsupply/ethsig/eip712"
	"github.com/indexsupply/ethsig/eip712/legacy"
	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/isxhash"
	"github.com/indexsupply/ethsig/wsecp256k1"
)

const personalPrefix = "\x19Ethereum Signed Message:\n"

// keccak("\x19Ethereum Signed Message:\n" || len(msg) || msg)
// where len is the decimal byte length of msg.
func TextHash(msg []byte) [32]byte {
	n := strconv.Itoa(len(msg))
	return isxhash.Keccak32([]byte(personalPrefix), []byte(n), msg)
}

// Signs digest without a prefix. Since digest may be
// the hash of anything, including a transaction, this
// must only be exposed to callers that are trusted
// to produce the digest.
func SignHash(kp wsecp256k1.KeyPair, digest []byte) (wsecp256k1.Signature, error) {
	if !kp.Valid() {
		return wsecp256k1.Signature{}, isxerrors.InputFormat("missing private key")
	}
	sig, err := kp.Sign(digest)
	if err != nil {
		return wsecp256k1.Signature{}, err
	}
	return sig.Legacy(), nil
}

func SignText(kp wsecp256k1.KeyPair, msg []byte) (wsecp256k1.Signature, error) {
	h := TextHash(msg)
	return SignHash(kp, h[:])
}

func SignTypedData(kp wsecp256k1.KeyPair, td eip712.TypedData, v eip712.Version) (wsecp256k1.Signature, error) {
	h, err := td.Hash(v)
	if err != nil {
		return wsecp256k1.Signature{}, err
	}
	return SignHash(kp, h[:])
}

func SignLegacy(kp wsecp256k1.KeyPair, entries []legacy.Entry, s legacy.Scheme) (wsecp256k1.Signature, error) {
	h, err := s.Hash(entries)
	if err != nil {
		return wsecp256k1.Signature{}, err
	}
	return SignHash(kp, h[:])
}

func Recover(digest []byte, sig wsecp256k1.Signature) (eth.Address, error) {
	pub, err := wsecp256k1.Recover(sig, digest)
	if err != nil {
		return eth.Address{}, err
	}
	return wsecp256k1.Address(pub), nil
}

func RecoverText(msg []byte, sig wsecp256k1.Signature) (eth.Address, error) {
	h := TextHash(msg)
	return Recover(h[:], sig)
}

// Reports whether sig over digest was produced by addr.
// Malformed signatures are an error, not a mismatch.
func Verify(addr eth.Address, digest []byte, sig wsecp256k1.Signature) (bool, error) {
	got, err := Recover(digest, sig)
	if err != nil {
		return false, err
	}
	return got == addr, nil
}
