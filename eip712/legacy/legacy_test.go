package legacy

import (
	"errors"
	"os"
	"testing"

	"github.com/indexsupply/ethsig/abi"
	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/tc"
	"kr.dev/diff"
)

func fixture(tb testing.TB) []Entry {
	tb.Helper()
	b, err := os.ReadFile("testdata/v1.json")
	if err != nil {
		tb.Fatal(err)
	}
	entries, err := Parse(b)
	if err != nil {
		tb.Fatal(err)
	}
	return entries
}

func TestHash(t *testing.T) {
	entries := fixture(t)
	diff.Test(t, t.Errorf, 2, len(entries))
	diff.Test(t, t.Errorf, "A number", entries[1].Name)

	cases := []struct {
		scheme Scheme
		want   string
	}{
		{Words, "0xb710e0fd94d802b2f7b338a6b742208bc9306dc4366f3b42c65cd4b30eb2dec6"},
		{SigUtil, "0x7bcdd3ffeab400ef2294ebf69b2defd370bd29ac576c2569b7ea2c48f49ab1ae"},
	}
	for _, c := range cases {
		got, err := c.scheme.Hash(entries)
		tc.NoErr(t, err)
		diff.Test(t, t.Errorf, c.want, eth.EncodeHex(got[:]))
	}
	got, err := Hash(entries)
	tc.NoErr(t, err)
	diff.Test(t, t.Errorf, cases[0].want, eth.EncodeHex(got[:]))
}

func TestHash_Order(t *testing.T) {
	entries := fixture(t)
	reversed := []Entry{entries[1], entries[0]}
	got, err := Hash(reversed)
	tc.NoErr(t, err)
	diff.Test(t, t.Errorf,
		"0x5934be88a18a969a905b4378e31f7589c13cf5b6d770e9e448032126d3fe21c2",
		eth.EncodeHex(got[:]),
	)
	for _, s := range []Scheme{Words, SigUtil} {
		h1, err := s.Hash(entries)
		tc.NoErr(t, err)
		h2, err := s.Hash(reversed)
		tc.NoErr(t, err)
		if h1 == h2 {
			t.Errorf("%s: permuting entries must change the hash", s)
		}
	}
}

func TestHash_SigUtil(t *testing.T) {
	cases := []struct {
		entries []Entry
		want    string
	}{
		{
			entries: []Entry{
				{"string", "message", abi.StringValue("Hi, Alice!")},
			},
			want: "0x14b9f24872e28cc49e72dc104d7380d8e0ba84a3fe2e712704bcac66a5702bd5",
		},
		{
			entries: []Entry{
				{"string", "message", abi.StringValue("Hi, Alice!")},
				{"uint8", "value", abi.StringValue("10")},
			},
			want: "0xf7ad23226db5c1c00ca0ca1468fd49c8f8bbc1489bc1c382de5adc557a69c229",
		},
		{
			entries: []Entry{
				{"int8", "n", abi.NumberValue("-1")},
				{"bool", "b", abi.BoolValue(true)},
				{"bytes", "x", abi.StringValue("0x0102")},
				{"address", "a", abi.StringValue("0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826")},
				{"bytes2", "y", abi.StringValue("0xabcd")},
			},
			want: "0x0033927c036464f49382c257f7e0bc1e87ea202ac41bffffd4d8f765d8f3a98d",
		},
	}
	for _, c := range cases {
		got, err := SigUtil.Hash(c.entries)
		tc.NoErr(t, err)
		diff.Test(t, t.Errorf, c.want, eth.EncodeHex(got[:]))
	}
}

func TestHash_Errors(t *testing.T) {
	cases := []struct {
		desc    string
		entries []Entry
		want    error
	}{
		{"empty", nil, isxerrors.ErrSchema},
		{"array", []Entry{{"uint8[]", "x", abi.ListValue()}}, isxerrors.ErrEncoding},
		{"struct", []Entry{{"Person", "x", abi.StructValue(nil)}}, isxerrors.ErrEncoding},
		{"token", []Entry{{"uint9", "x", abi.NumberValue("1")}}, isxerrors.ErrEncoding},
		{"range", []Entry{{"uint8", "x", abi.NumberValue("256")}}, isxerrors.ErrEncoding},
		{"mismatch", []Entry{{"bool", "x", abi.StringValue("yes")}}, isxerrors.ErrSchema},
	}
	for _, c := range cases {
		for _, s := range []Scheme{Words, SigUtil} {
			_, err := s.Hash(c.entries)
			if !errors.Is(err, c.want) {
				t.Errorf("%s/%s: want %v got: %v", c.desc, s, c.want, err)
			}
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  error
	}{
		{`{}`, isxerrors.ErrInputFormat},
		{`[{"type":"string","name":"a"}]`, isxerrors.ErrInputFormat},
		{`[{"type":"string","value":"a"}]`, isxerrors.ErrInputFormat},
		{`[{"name":"a","value":"a"}]`, isxerrors.ErrInputFormat},
		{`[{"type":"string","name":"a","value":"b","extra":1}]`, nil},
	}
	for _, c := range cases {
		_, err := Parse([]byte(c.input))
		if c.want == nil {
			tc.NoErr(t, err)
			continue
		}
		if !errors.Is(err, c.want) {
			t.Errorf("%s: want %v got: %v", c.input, c.want, err)
		}
	}
	s, err := ParseScheme("sigutil")
	tc.NoErr(t, err)
	diff.Test(t, t.Errorf, SigUtil, s)
	_, err = ParseScheme("v2")
	tc.ErrIs(t, isxerrors.ErrInputFormat, err)

	entries := []Entry{{"uint8", "x", abi.NumberValue("1")}}
	_, err = Scheme(7).Hash(entries)
	tc.ErrIs(t, isxerrors.ErrEncoding, err)
}
