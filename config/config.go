package config

import (
	"fmt"
	"io"
	"slices"

	"github.com/goccy/go-json"
	"github.com/indexsupply/ethsig/eip712/legacy"
	"github.com/indexsupply/ethsig/signer"
	"github.com/indexsupply/ethsig/wos"
	"github.com/indexsupply/ethsig/wsecp256k1"
	"github.com/indexsupply/ethsig/wstrings"
)

const DefaultListen = "localhost:8547"

type Root struct {
	Listen  string        `json:"listen"`
	Key     wos.EnvString `json:"key"`
	ChainID uint64        `json:"chain_id"`

	// Allowed signing methods. When empty every
	// method except eth_sign is allowed.
	Methods []string `json:"methods"`

	// words or sigutil
	LegacyScheme string `json:"legacy_scheme"`
}

func Load(r io.Reader) (Root, error) {
	var conf Root
	if err := json.NewDecoder(r).Decode(&conf); err != nil {
		return Root{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := ValidateFix(&conf); err != nil {
		return Root{}, err
	}
	return conf, nil
}

func ValidateFix(conf *Root) error {
	if conf.Listen == "" {
		conf.Listen = DefaultListen
	}
	if conf.Key == "" {
		return fmt.Errorf("missing key")
	}
	if _, err := wsecp256k1.ParsePrivateKey(string(conf.Key)); err != nil {
		return fmt.Errorf("checking key: %w", err)
	}
	if conf.ChainID == 0 {
		conf.ChainID = 1
	}
	if len(conf.Methods) == 0 {
		for _, m := range signer.Methods() {
			if m != signer.EthSign {
				conf.Methods = append(conf.Methods, string(m))
			}
		}
	}
	for _, m := range conf.Methods {
		if err := wstrings.Safe(m); err != nil {
			return fmt.Errorf("checking method %q: %w", m, err)
		}
		if _, err := signer.ParseMethod(m); err != nil {
			return fmt.Errorf("checking methods: %w", err)
		}
	}
	if conf.LegacyScheme == "" {
		conf.LegacyScheme = legacy.SigUtil.String()
	}
	if _, err := legacy.ParseScheme(conf.LegacyScheme); err != nil {
		return fmt.Errorf("legacy_scheme must be one of: words, sigutil. got: %s", conf.LegacyScheme)
	}
	return nil
}

func (conf Root) KeyPair() (wsecp256k1.KeyPair, error) {
	return wsecp256k1.ParsePrivateKey(string(conf.Key))
}

func (conf Root) Scheme() legacy.Scheme {
	s, _ := legacy.ParseScheme(conf.LegacyScheme)
	return s
}

func (conf Root) Enabled(m signer.Method) bool {
	return slices.Contains(conf.Methods, string(m))
}
