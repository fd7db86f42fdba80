package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/indexsupply/ethsig/isxerrors"
)

// Decodes 0x prefixed (or bare) hex. Unlike quantities,
// byte strings must have an even number of digits.
func DecodeHex(s string) ([]byte, error) {
	switch {
	case strings.HasPrefix(s, "0x"):
	case strings.HasPrefix(s, "0X"):
		s = "0x" + s[2:]
	default:
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, isxerrors.InputFormat("decoding hex %q: %w", short(s), err)
	}
	return b, nil
}

// 0x prefixed, lower case hex encoded string
func EncodeHex(b []byte) string {
	return hexutil.Encode(b)
}

func short(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
