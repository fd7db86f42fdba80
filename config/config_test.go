package config

import (
	"strings"
	"testing"

	"github.com/indexsupply/ethsig/eip712/legacy"
	"github.com/indexsupply/ethsig/signer"
	"github.com/indexsupply/ethsig/tc"
	"kr.dev/diff"
)

const sampleKey = "0xa392604efc2fad9c0b3da43b5f698a2e3f270f170d859912be0d54742275c5f6"

func TestLoad(t *testing.T) {
	t.Setenv("ETHSIG_TEST_KEY", sampleKey)
	conf, err := Load(strings.NewReader(`{"key": "$ETHSIG_TEST_KEY"}`))
	tc.NoErr(t, err)
	diff.Test(t, t.Errorf, DefaultListen, conf.Listen)
	diff.Test(t, t.Errorf, uint64(1), conf.ChainID)
	diff.Test(t, t.Errorf, legacy.SigUtil, conf.Scheme())
	diff.Test(t, t.Errorf, false, conf.Enabled(signer.EthSign))
	diff.Test(t, t.Errorf, true, conf.Enabled(signer.PersonalSign))
	diff.Test(t, t.Errorf, true, conf.Enabled(signer.TypedDataV4))

	kp, err := conf.KeyPair()
	tc.NoErr(t, err)
	diff.Test(t, t.Errorf, "0xef678007d18427e6022059dbc264f27507cd1ffc", kp.Address().Hex())
}

func TestLoad_Explicit(t *testing.T) {
	conf, err := Load(strings.NewReader(`{
		"listen": ":9000",
		"key": "` + sampleKey + `",
		"chain_id": 137,
		"methods": ["eth_sign"],
		"legacy_scheme": "words"
	}`))
	tc.NoErr(t, err)
	diff.Test(t, t.Errorf, ":9000", conf.Listen)
	diff.Test(t, t.Errorf, uint64(137), conf.ChainID)
	diff.Test(t, t.Errorf, legacy.Words, conf.Scheme())
	diff.Test(t, t.Errorf, true, conf.Enabled(signer.EthSign))
	diff.Test(t, t.Errorf, false, conf.Enabled(signer.PersonalSign))
}

func TestValidateFix_Errors(t *testing.T) {
	cases := []struct {
		conf Root
		want string
	}{
		{
			conf: Root{},
			want: "missing key",
		},
		{
			conf: Root{Key: "0x01"},
			want: "checking key: input format: private key must be 32 bytes. got: 1",
		},
		{
			conf: Root{Key: sampleKey, Methods: []string{"eth_sendTransaction"}},
			want: `checking methods: input format: unknown signing method "eth_sendTransaction"`,
		},
		{
			conf: Root{Key: sampleKey, Methods: []string{"eth;sign"}},
			want: `checking method "eth;sign": must be 'a-z', 'A-Z', '0-9', '_', or '-'`,
		},
		{
			conf: Root{Key: sampleKey, LegacyScheme: "v2"},
			want: "legacy_scheme must be one of: words, sigutil. got: v2",
		},
	}
	for _, c := range cases {
		err := ValidateFix(&c.conf)
		if err == nil {
			t.Errorf("expected error %q", c.want)
			continue
		}
		diff.Test(t, t.Errorf, c.want, err.Error())
		if strings.Contains(err.Error(), sampleKey[2:]) {
			t.Error("error must not contain the key")
		}
	}
}
