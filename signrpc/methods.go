package signrpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/signer"
	"github.com/indexsupply/ethsig/wsecp256k1"
)

// Parameter order follows the wallets:
//
//	eth_sign              [address, digest]
//	personal_sign         [message, address]
//	eth_signTypedData     [entries, address]
//	eth_signTypedData_v3  [address, typedData]
//	eth_signTypedData_v4  [address, typedData]
//	personal_ecRecover    [message, signature]
func (s *Server) Call(ctx context.Context, method string, params []json.RawMessage) (any, error) {
	switch method {
	case "eth_accounts":
		return []string{s.kp.Address().Hex()}, nil
	case "eth_chainId":
		return fmt.Sprintf("0x%x", s.conf.ChainID), nil
	case "personal_ecRecover":
		if err := arity(params, 2); err != nil {
			return nil, err
		}
		msg, err := message(params[0])
		if err != nil {
			return nil, err
		}
		sigs, err := str(params[1])
		if err != nil {
			return nil, err
		}
		sig, err := wsecp256k1.ParseSignature(sigs)
		if err != nil {
			return nil, err
		}
		addr, err := signer.RecoverText(msg, sig)
		if err != nil {
			return nil, err
		}
		return addr.Hex(), nil
	}

	m, err := signer.ParseMethod(method)
	if err != nil || !s.conf.Enabled(m) {
		return nil, &Error{CodeMethodNotFound, fmt.Sprintf("method %q is not available", method)}
	}
	if err := arity(params, 2); err != nil {
		return nil, err
	}
	var (
		payload []byte
		addrp   json.RawMessage
	)
	switch m {
	case signer.EthSign:
		addrp = params[0]
		d, err := str(params[1])
		if err != nil {
			return nil, err
		}
		payload, err = eth.DecodeHex(d)
		if err != nil {
			return nil, err
		}
	case signer.PersonalSign:
		addrp = params[1]
		payload, err = message(params[0])
		if err != nil {
			return nil, err
		}
	case signer.TypedDataV1:
		addrp = params[1]
		payload, err = document(params[0])
		if err != nil {
			return nil, err
		}
	case signer.TypedDataV3, signer.TypedDataV4:
		addrp = params[0]
		payload, err = document(params[1])
		if err != nil {
			return nil, err
		}
	}
	if err := s.account(addrp); err != nil {
		return nil, err
	}
	digest, err := s.dg.Digest(m, payload)
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignHash(s.kp, digest[:])
	if err != nil {
		return nil, err
	}
	return sig.Hex(), nil
}

func arity(params []json.RawMessage, n int) error {
	if len(params) < n {
		return isxerrors.InputFormat("expected %d params. got: %d", n, len(params))
	}
	return nil
}

func (s *Server) account(p json.RawMessage) error {
	as, err := str(p)
	if err != nil {
		return err
	}
	addr, err := eth.ParseAddress(as)
	if err != nil {
		return err
	}
	if addr != s.kp.Address() {
		return isxerrors.InputFormat("unknown account %s", addr)
	}
	return nil
}

func str(p json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(p, &s); err != nil {
		return "", isxerrors.InputFormat("expected string param")
	}
	return s, nil
}

// 0x prefixed values are hex encoded bytes,
// anything else is taken as utf-8 text
func message(p json.RawMessage) ([]byte, error) {
	s, err := str(p)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return eth.DecodeHex(s)
	}
	return []byte(s), nil
}

// Typed data may be sent as json or as a
// string containing json.
func document(p json.RawMessage) ([]byte, error) {
	if len(p) > 0 && p[0] == '"' {
		s, err := str(p)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return p, nil
}
