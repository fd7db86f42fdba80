// Legacy (v1) typed data as accepted by the original
// eth_signTypedData: a flat, ordered list of typed
// values with no domain separator.
//
// Only atomic types are supported. The order of
// entries is significant and is never changed.
package legacy

import (
	"github.com/goccy/go-json"
	"github.com/indexsupply/ethsig/abi"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/isxhash"
)

type Entry struct {
	Type  string    `json:"type"`
	Name  string    `json:"name"`
	Value abi.Value `json:"value"`
}

// Decodes a json array of {type, name, value}.
// Unknown keys are ignored, missing keys are an error.
func Parse(data []byte) ([]Entry, error) {
	var raw []struct {
		Type  *string    `json:"type"`
		Name  *string    `json:"name"`
		Value *abi.Value `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		if isxerrors.Kind(err) != nil {
			return nil, err
		}
		return nil, isxerrors.InputFormat("decoding legacy typed data: %w", err)
	}
	entries := make([]Entry, len(raw))
	for i, r := range raw {
		switch {
		case r.Type == nil:
			return nil, isxerrors.InputFormat("entry %d: missing type", i)
		case r.Name == nil:
			return nil, isxerrors.InputFormat("entry %d: missing name", i)
		case r.Value == nil:
			return nil, isxerrors.InputFormat("entry %d: missing value", i)
		}
		entries[i] = Entry{Type: *r.Type, Name: *r.Name, Value: *r.Value}
	}
	return entries, nil
}

type Scheme byte

const (
	// keccak(word_0 || word_1 || ...) where each word
	// uses the atomic EIP-712 encoding.
	Words Scheme = iota

	// keccak(keccak(packed "type name"...) || keccak(packed values...))
	// as computed by MetaMask and eth-sig-util.
	SigUtil
)

func (s Scheme) String() string {
	switch s {
	case Words:
		return "words"
	case SigUtil:
		return "sigutil"
	default:
		return "unknown"
	}
}

func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "words":
		return Words, nil
	case "sigutil":
		return SigUtil, nil
	default:
		return 0, isxerrors.InputFormat("unknown legacy scheme %q", s)
	}
}

// Hashes entries using the Words scheme
func Hash(entries []Entry) ([32]byte, error) {
	return Words.Hash(entries)
}

func (s Scheme) Hash(entries []Entry) ([32]byte, error) {
	if len(entries) == 0 {
		return [32]byte{}, isxerrors.Schema("legacy typed data requires at least one entry")
	}
	types := make([]abi.Type, len(entries))
	for i, e := range entries {
		t, err := abi.Parse(e.Type)
		if err != nil {
			return [32]byte{}, isxerrors.Errorf("entry %d: %w", i, err)
		}
		if !t.Atomic() {
			return [32]byte{}, isxerrors.Encoding("entry %d: %s is not supported by legacy typed data", i, t)
		}
		types[i] = t
	}
	switch s {
	case Words:
		return words(types, entries)
	case SigUtil:
		return sigutil(types, entries)
	default:
		return [32]byte{}, isxerrors.Encoding("unknown legacy scheme %d", s)
	}
}

func words(types []abi.Type, entries []Entry) ([32]byte, error) {
	buf := make([]byte, 0, 32*len(entries))
	for i := range entries {
		w, err := abi.Word(types[i], entries[i].Value)
		if err != nil {
			return [32]byte{}, isxerrors.Errorf("%s: %w", entries[i].Name, err)
		}
		buf = append(buf, w[:]...)
	}
	return isxhash.Keccak32(buf), nil
}

func sigutil(types []abi.Type, entries []Entry) ([32]byte, error) {
	var schema, values []byte
	for i := range entries {
		schema = append(schema, entries[i].Type...)
		schema = append(schema, ' ')
		schema = append(schema, entries[i].Name...)
		b, err := abi.Packed(types[i], entries[i].Value)
		if err != nil {
			return [32]byte{}, isxerrors.Errorf("%s: %w", entries[i].Name, err)
		}
		values = append(values, b...)
	}
	return isxhash.Keccak32(isxhash.Keccak(schema), isxhash.Keccak(values)), nil
}
