// Small wrapper around sha3 package to
// canonicalize how data is to be hashed.
//
// Ethereum uses the original Keccak padding (0x01)
// and not the NIST SHA3 padding (0x06).
package isxhash

import "golang.org/x/crypto/sha3"

func Keccak32(d ...[]byte) [32]byte {
	return *(*[32]byte)(Keccak(d...))
}

// Hashes the concatenation of d without
// allocating the concatenated slice.
func Keccak(d ...[]byte) []byte {
	k := sha3.NewLegacyKeccak256()
	for i := range d {
		k.Write(d[i])
	}
	return k.Sum(nil)
}
